package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/output"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/tokenizer"
	"github.com/aretw0/conshell/pkg/transport"
)

func (s *Shell) cmdRun(ctx context.Context, _ *registry.Invocation) error {
	if _, err := s.mode.Transition(domain.ModeContinuous, domain.ModeIdle); err != nil {
		return err
	}
	s.logger.Info("continuous input mode")

	err := s.readLoop(ctx, domain.ModeContinuous)
	if errors.Is(err, io.EOF) {
		s.logger.Info("console closed")
		return s.Quit()
	}
	return nil
}

func (s *Shell) cmdQuit(context.Context, *registry.Invocation) error {
	return s.Quit()
}

// Quit leaves Continuous mode and ends the process.
func (s *Shell) Quit() error {
	if _, err := s.mode.Transition(domain.ModeIdle, domain.ModeContinuous); err != nil {
		return err
	}
	s.terminate(0)
	return nil
}

func (s *Shell) cmdStart(ctx context.Context, inv *registry.Invocation) error {
	port := s.port
	if arg := inv.Arg(0); arg != "" {
		p, err := registry.ParsePositiveInt(arg)
		if err != nil {
			return err
		}
		port = p
	}

	target := domain.ModeNetworkService
	if s.allowInput {
		target = domain.ModeContinuousNetworkService
	}
	if _, err := s.mode.Transition(target, domain.ModeIdle); err != nil {
		return err
	}

	unlock, err := s.locker.Acquire(ctx, s.lockName)
	if err != nil {
		_, _ = s.mode.Transition(domain.ModeIdle, target)
		s.logger.Error("instance lock failed", "name", s.lockName, "err", err)
		if err := registry.Emit(inv.Out, output.ErrorResult(s.reg.Token(inv.Descriptor)+" "+err.Error()), s.Format()); err != nil {
			s.logger.Error("failed to write result", "err", err)
		}
		s.terminate(0)
		return nil
	}
	// Held for the life of the process; never released by Stop.
	s.svcMu.Lock()
	s.unlock = unlock
	s.svcMu.Unlock()

	return s.serve(ctx, port, target)
}

func (s *Shell) serve(ctx context.Context, port int, target domain.Mode) error {
	svcCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	opts := []transport.Option{
		transport.WithOutput(s.out()),
		transport.WithLogger(s.logger),
		transport.WithMetrics(s.metrics),
	}
	if s.transports != nil {
		opts = append(opts, transport.WithTransports(s.transports()...))
	}
	handler := NewNetworkHandler(s, s.codec, s.out(), s.prompt, s.reply, s.logger)
	handler.MaxInputSize = s.maxInput
	svc := transport.NewService(handler, opts...)
	done := make(chan struct{})

	s.svcMu.Lock()
	s.svc = svc
	s.done = done
	s.cancel = cancel
	s.unhook = s.hook.Register(func() {
		if err := s.Stop(); err != nil {
			s.logger.Debug("shutdown hook: stop skipped", "err", err)
		}
	})
	s.svcMu.Unlock()

	s.logger.Info("service starting", "mode", target, "host", s.host, "port", port)
	go func() {
		s.println("%s starting on port %d ...", s.info.Title, port)
		if svc.Start(svcCtx, s.host, port) == 0 {
			s.logger.Warn("no transport started", "port", port)
		}
		for _, c := range s.companions {
			if err := c.Start(svcCtx); err != nil {
				s.logger.Error("companion failed to start", "err", err)
				s.println("%v", err)
			}
		}
	}()

	if target == domain.ModeNetworkService {
		<-done
		return nil
	}

	// A stop from the network must also end a pending console read.
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go func() {
		select {
		case <-done:
			stopReading()
		case <-readCtx.Done():
		}
	}()

	if err := s.readLoop(readCtx, target); err != nil {
		if errors.Is(err, io.EOF) {
			s.logger.Info("console closed, network service keeps running")
		}
		<-done
	}
	return nil
}

func (s *Shell) cmdStop(context.Context, *registry.Invocation) error {
	return s.Stop()
}

// Stop runs the stop sequence of a service mode: back to Idle, wait for
// running commands, tear down the transports and companions, pause for
// output to flush, then exit with code 0.
func (s *Shell) Stop() error {
	prev, err := s.mode.Transition(domain.ModeIdle, domain.ModeNetworkService, domain.ModeContinuousNetworkService)
	if err != nil {
		return err
	}
	s.println("Stopping service ...")
	s.logger.Info("service stopping", "mode", prev)

	if !s.drain(s.drainTimeout) {
		s.logger.Warn("stopping with commands still running", "inflight", s.inflight.Load())
	}

	s.svcMu.Lock()
	svc, done, unhook, cancel := s.svc, s.done, s.unhook, s.cancel
	s.svc, s.done, s.unhook, s.cancel = nil, nil, nil, nil
	s.svcMu.Unlock()

	if svc != nil {
		svc.Unsubscribe()
		svc.Destroy()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), s.drainTimeout)
	for _, c := range s.companions {
		if err := c.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("companion shutdown failed", "err", err)
		}
	}
	stop()

	if unhook != nil {
		unhook()
	}
	if cancel != nil {
		cancel()
	}

	time.Sleep(s.flushDelay)
	s.terminate(0)
	if done != nil {
		close(done)
	}
	return nil
}

// Broadcast writes text to every client of the running service and returns
// the number of transports that accepted it.
func (s *Shell) Broadcast(text string) (int, error) {
	s.svcMu.Lock()
	svc := s.svc
	s.svcMu.Unlock()
	if svc == nil {
		return 0, fmt.Errorf("%w: network service is not running", domain.ErrTransport)
	}
	payload, err := s.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return svc.Broadcast(payload), nil
}

// drain waits until no counted command is running or timeout elapses.
func (s *Shell) drain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for s.inflight.Load() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
	return true
}

// readLoop reads console lines and dispatches them while the mode stays mode.
func (s *Shell) readLoop(ctx context.Context, mode domain.Mode) error {
	for s.mode.Get() == mode && !s.exited.Load() {
		line, err := s.console.ReadLine(ctx)
		if err != nil {
			return err
		}
		tokens := tokenizer.Tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		_ = s.Dispatch(ctx, tokens, domain.ConsoleOrigin, s.out())
	}
	return nil
}
