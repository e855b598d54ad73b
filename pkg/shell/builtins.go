package shell

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/output"
	"github.com/aretw0/conshell/pkg/registry"
)

func control(name, args, description string, arity int, fn registry.HandlerFunc) registry.Entry {
	e := registry.Command(name, args, description, arity, fn)
	e.Descriptor.Control = true
	return e
}

func (s *Shell) builtins() []registry.Entry {
	return []registry.Entry{
		control("?", "", "show this help, same as running without arguments", 0, s.cmdHelp),
		control("-run", "", "enter continuous input mode", 0, s.cmdRun),
		control("-quit", "", "leave continuous input mode and exit", 0, s.cmdQuit),
		control("-start", "int port", "enter network service mode; an empty port uses the configured one", 1, s.cmdStart),
		control("-stop", "", "stop the network service and exit", 0, s.cmdStop),
		registry.Command("of", "(enum)", "output format: 0|default, 1|json, 2|xml. e.g. -of 1 or -of json", 1, s.cmdOutputFormat),
		registry.Command("sp", "(int ms)", "suspend the calling goroutine for the given milliseconds", 1, s.cmdSleep),
		registry.Command("v", "", "show version information", 0, s.cmdVersion),
		registry.Command("cs", "", "list connected remote clients", 0, s.cmdClients),
		registry.Command("bc", "(str)", "broadcast text to every connected client", 1, s.cmdBroadcast),
	}
}

func (s *Shell) cmdHelp(_ context.Context, inv *registry.Invocation) error {
	s.writeHelp(inv.Out)
	return nil
}

func (s *Shell) cmdOutputFormat(_ context.Context, inv *registry.Invocation) error {
	f, err := output.ParseFormat(inv.Arg(0))
	if err != nil {
		return err
	}
	s.SetFormat(f)
	return nil
}

func (s *Shell) cmdSleep(ctx context.Context, inv *registry.Invocation) error {
	ms, err := registry.ParsePositiveInt(inv.Arg(0))
	if err != nil {
		return err
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Shell) cmdVersion(_ context.Context, inv *registry.Invocation) error {
	r := output.NewResult()
	if s.info.Title != "" {
		r.Set("Title", s.info.Title)
	}
	if s.info.Author != "" {
		r.Set("Author", s.info.Author)
	}
	if s.info.Copyright != "" {
		r.Set("CopyRight", s.info.Copyright)
	}
	if s.info.Version != "" {
		r.Set("Version", s.info.Version)
	}
	return inv.Emit(r)
}

func (s *Shell) cmdClients(_ context.Context, inv *registry.Invocation) error {
	transports := s.Transports()
	if transports == nil {
		return inv.Emit(output.Message("network service is not running"))
	}

	r := output.NewResult()
	for _, t := range transports {
		clients := []string{}
		for _, id := range t.Clients() {
			if host, port, ok := t.RemoteAddr(id); ok {
				clients = append(clients, host+":"+strconv.Itoa(port))
			}
		}
		r.Set(string(t.Kind()), clients)
	}
	return inv.Emit(r)
}

func (s *Shell) cmdBroadcast(_ context.Context, inv *registry.Invocation) error {
	if err := registry.RequireArg(inv.Arg(0)); err != nil {
		return err
	}
	if !s.mode.Get().IsService() {
		return fmt.Errorf("%w: broadcast requires a network service mode", domain.ErrIllegalTransition)
	}
	n, err := s.Broadcast(inv.Arg(0) + "\n")
	if err != nil {
		return err
	}
	return inv.Emit(output.NewResult().Set("Broadcast", inv.Arg(0)).Set("Transports", n))
}
