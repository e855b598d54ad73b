package shell

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/conshell/pkg/ports"
)

// SignalHook turns SIGINT, SIGTERM and SIGHUP (console close) into a
// cooperative shutdown request. Signals are only intercepted while at least
// one callback is registered. After the first signal the default handling
// is restored, so a second Ctrl+C terminates the process.
type SignalHook struct {
	signals []os.Signal
	logger  *slog.Logger

	mu   sync.Mutex
	fns  map[uint64]func()
	next uint64
	ch   chan os.Signal
	quit chan struct{}
}

var _ ports.ShutdownHook = (*SignalHook)(nil)

// NewSignalHook creates a hook for the given signals, or for SIGINT, SIGTERM
// and SIGHUP when none are given.
func NewSignalHook(logger *slog.Logger, signals ...os.Signal) *SignalHook {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SignalHook{
		signals: signals,
		logger:  logger,
		fns:     make(map[uint64]func()),
	}
}

// Register arranges for fn to run on its own goroutine when a signal arrives.
func (h *SignalHook) Register(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ch == nil {
		h.ch = make(chan os.Signal, 1)
		h.quit = make(chan struct{})
		signal.Notify(h.ch, h.signals...)
		go h.wait(h.ch, h.quit)
	}
	id := h.next
	h.next++
	h.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.fns, id)
			if len(h.fns) == 0 {
				h.release()
			}
		})
	}
}

func (h *SignalHook) wait(ch chan os.Signal, quit chan struct{}) {
	select {
	case sig := <-ch:
		h.logger.Info("termination requested", "signal", sig.String())
		h.mu.Lock()
		fns := make([]func(), 0, len(h.fns))
		for _, fn := range h.fns {
			fns = append(fns, fn)
		}
		if h.ch == ch {
			h.release()
		}
		h.mu.Unlock()
		for _, fn := range fns {
			go fn()
		}
	case <-quit:
	}
}

// release stops intercepting signals. Callers hold h.mu.
func (h *SignalHook) release() {
	if h.ch == nil {
		return
	}
	signal.Stop(h.ch)
	close(h.quit)
	h.ch = nil
	h.quit = nil
}
