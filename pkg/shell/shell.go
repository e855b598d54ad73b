package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/conshell/pkg/adapters/lockfile"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/observability"
	"github.com/aretw0/conshell/pkg/output"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/transport"
)

// Info identifies the application in the version card.
type Info struct {
	Title     string
	Author    string
	Copyright string
	Version   string
}

// Shell dispatches command lines and owns the execution mode.
type Shell struct {
	reg      *registry.Registry
	commands []registry.Entry
	marker   string
	info     Info
	prompt   string
	console  *Console

	host         string
	port         int
	allowInput   bool
	lockName     string
	locker       ports.InstanceLocker
	hook         ports.ShutdownHook
	flushDelay   time.Duration
	drainTimeout time.Duration
	codec        *transport.TextCodec
	maxInput     int
	reply        ports.ReplyFunc
	companions   []Companion
	transports   func() []ports.Transport

	logger  *slog.Logger
	metrics *observability.Metrics
	exit    func(int)

	mode     modeCell
	format   atomic.Int32
	inflight atomic.Int64
	exited   atomic.Bool

	svcMu  sync.Mutex
	svc    *transport.Service
	done   chan struct{}
	unhook func()
	unlock ports.UnlockFunc
	cancel context.CancelFunc
}

var _ registry.Dispatcher = (*Shell)(nil)

// New builds a shell. It fails when two commands share a name.
func New(opts ...Option) (*Shell, error) {
	s := &Shell{
		marker:       registry.DefaultMarker,
		info:         Info{Title: DefaultTitle},
		prompt:       DefaultPrompt,
		port:         DefaultPort,
		allowInput:   true,
		flushDelay:   DefaultFlushDelay,
		drainTimeout: DefaultDrainTimeout,
		logger:       slog.New(slog.DiscardHandler),
		exit:         os.Exit,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.console == nil {
		s.console = NewConsole(os.Stdin, os.Stdout, s.prompt)
	}
	s.prompt = s.console.Prompt()
	if s.maxInput > 0 {
		s.console.maxInput = s.maxInput
	}
	if s.lockName == "" {
		s.lockName = s.prompt + ".Service"
	}
	if s.locker == nil {
		s.locker = lockfile.New("")
	}
	if s.hook == nil {
		s.hook = NewSignalHook(s.logger)
	}
	if s.codec == nil {
		codec, err := transport.NewTextCodec(transport.DefaultEncoding)
		if err != nil {
			return nil, err
		}
		s.codec = codec
	}

	entries := append(s.builtins(), s.commands...)
	reg, err := registry.New(s.marker, entries...)
	if err != nil {
		return nil, err
	}
	s.reg = reg
	return s, nil
}

// Registry returns the command registry.
func (s *Shell) Registry() *registry.Registry { return s.reg }

// Mode returns the current execution mode.
func (s *Shell) Mode() domain.Mode { return s.mode.Get() }

// Format returns the output format in effect.
func (s *Shell) Format() output.Format { return output.Format(s.format.Load()) }

// SetFormat changes the output format.
func (s *Shell) SetFormat(f output.Format) { s.format.Store(int32(f)) }

// Info returns the application identity.
func (s *Shell) Info() Info { return s.info }

// Prompt returns the console prompt text.
func (s *Shell) Prompt() string { return s.prompt }

// Console returns the interactive console.
func (s *Shell) Console() *Console { return s.console }

// Transports returns the transports of the running service, or nil.
func (s *Shell) Transports() []ports.Transport {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()
	if s.svc == nil {
		return nil
	}
	return s.svc.Transports()
}

// Exited reports whether the shell has asked the process to exit.
func (s *Shell) Exited() bool { return s.exited.Load() }

// Run dispatches the process arguments in Idle mode.
func (s *Shell) Run(ctx context.Context, args []string) error {
	return s.Dispatch(ctx, args, domain.ConsoleOrigin, s.console.Writer())
}

func (s *Shell) terminate(code int) {
	s.exited.Store(true)
	s.logger.Debug("exiting", "code", code)
	s.exit(code)
}

func (s *Shell) println(format string, args ...any) {
	fmt.Fprintf(s.console.Writer(), format+"\n", args...)
}

func (s *Shell) out() io.Writer { return s.console.Writer() }
