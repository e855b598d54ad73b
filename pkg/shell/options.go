package shell

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/conshell/pkg/observability"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/transport"
)

// Defaults used when no option overrides them.
const (
	DefaultTitle        = "Console Application"
	DefaultPrompt       = "Input"
	DefaultPort         = 6101
	DefaultFlushDelay   = 500 * time.Millisecond
	DefaultDrainTimeout = 5 * time.Second
)

// Companion is started next to the transports when a service mode is entered
// and shut down with them.
type Companion interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCommands appends host commands after the built-in ones.
func WithCommands(entries ...registry.Entry) Option {
	return func(s *Shell) {
		s.commands = append(s.commands, entries...)
	}
}

// WithMarker sets the command marker prefix.
func WithMarker(marker string) Option {
	return func(s *Shell) {
		s.marker = marker
	}
}

// WithInfo sets the identity shown by -v and the banner.
func WithInfo(info Info) Option {
	return func(s *Shell) {
		s.info = info
	}
}

// WithPrompt sets the console prompt. Ignored when WithConsole is used.
func WithPrompt(prompt string) Option {
	return func(s *Shell) {
		if prompt != "" {
			s.prompt = prompt
		}
	}
}

// WithConsole sets the interactive console.
func WithConsole(c *Console) Option {
	return func(s *Shell) {
		s.console = c
	}
}

// WithListen sets the service host and default port.
func WithListen(host string, port int) Option {
	return func(s *Shell) {
		s.host = host
		if port > 0 {
			s.port = port
		}
	}
}

// WithAllowInput keeps reading the console in service mode
// (ContinuousNetworkService instead of NetworkService).
func WithAllowInput(allow bool) Option {
	return func(s *Shell) {
		s.allowInput = allow
	}
}

// WithLocker sets the single-instance lock and its name.
// An empty name keeps "<prompt>.Service".
func WithLocker(locker ports.InstanceLocker, name string) Option {
	return func(s *Shell) {
		s.locker = locker
		s.lockName = name
	}
}

// WithShutdownHook sets the hook that turns termination requests into a stop.
func WithShutdownHook(hook ports.ShutdownHook) Option {
	return func(s *Shell) {
		s.hook = hook
	}
}

// WithExit replaces os.Exit.
func WithExit(exit func(code int)) Option {
	return func(s *Shell) {
		if exit != nil {
			s.exit = exit
		}
	}
}

// WithFlushDelay sets the pause before the process exits after a stop.
func WithFlushDelay(d time.Duration) Option {
	return func(s *Shell) {
		s.flushDelay = d
	}
}

// WithDrainTimeout bounds how long a stop waits for running commands.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Shell) {
		s.drainTimeout = d
	}
}

// WithMetrics records dispatch and transport metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Shell) {
		s.metrics = m
	}
}

// WithCodec sets the text encoding of network payloads.
func WithCodec(c *transport.TextCodec) Option {
	return func(s *Shell) {
		s.codec = c
	}
}

// WithReply sends the output of every remote dispatch to fn.
func WithReply(fn ports.ReplyFunc) Option {
	return func(s *Shell) {
		s.reply = fn
	}
}

// WithMaxInputSize bounds every console and network line, in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Shell) {
		s.maxInput = n
	}
}

// WithCompanion adds a component that lives as long as the service.
func WithCompanion(c Companion) Option {
	return func(s *Shell) {
		s.companions = append(s.companions, c)
	}
}

// WithTransports replaces the TCP and UDP servers created on --start.
func WithTransports(factory func() []ports.Transport) Option {
	return func(s *Shell) {
		s.transports = factory
	}
}
