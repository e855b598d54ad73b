package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/conshell"
	"github.com/aretw0/conshell/internal/config"
	"github.com/aretw0/conshell/internal/presentation/tui"
	"github.com/aretw0/conshell/pkg/adapters/http"
	"github.com/aretw0/conshell/pkg/adapters/lockfile"
	"github.com/aretw0/conshell/pkg/adapters/memory"
	"github.com/aretw0/conshell/pkg/adapters/redis"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/observability"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/shell"
	"github.com/aretw0/conshell/pkg/transport"
)

// Options are the process resources a shell is built with.
type Options struct {
	In  io.Reader
	Out io.Writer
	// Exit terminates the process. Nil means os.Exit.
	Exit func(int)
	// Commands are the host application commands.
	Commands []registry.Entry
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// NewShell builds a shell from cfg using the standard CLI conventions.
func NewShell(cfg config.Config, logger *slog.Logger, opts Options) (*shell.Shell, error) {
	locker, err := newLocker(cfg.Lock, logger)
	if err != nil {
		return nil, err
	}
	codec, err := transport.NewTextCodec(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics()

	var consoleOpts []shell.ConsoleOption
	if style := tui.PromptStyle(opts.Out); style != nil {
		consoleOpts = append(consoleOpts, shell.WithPromptStyle(style))
	}

	shellOpts := []shell.Option{
		shell.WithLogger(logger),
		shell.WithInfo(shell.Info{
			Title:     cfg.Title,
			Author:    cfg.Author,
			Copyright: cfg.Copyright,
			Version:   conshell.Version,
		}),
		shell.WithMarker(cfg.Marker),
		shell.WithConsole(shell.NewConsole(opts.In, opts.Out, cfg.Prompt, consoleOpts...)),
		shell.WithListen(cfg.Host, cfg.Port),
		shell.WithAllowInput(cfg.AllowInput),
		shell.WithLocker(locker, cfg.Lock.Name),
		shell.WithFlushDelay(cfg.FlushDelay),
		shell.WithDrainTimeout(cfg.DrainTimeout),
		shell.WithMetrics(metrics),
		shell.WithCodec(codec),
		shell.WithMaxInputSize(cfg.MaxInputSize),
		shell.WithCommands(opts.Commands...),
	}
	if opts.Exit != nil {
		shellOpts = append(shellOpts, shell.WithExit(opts.Exit))
	}
	if cfg.Reply {
		shellOpts = append(shellOpts, shell.WithReply(replyFor(codec)))
	}

	// The status server needs the shell it reports on, which only exists
	// after New; status resolves it lazily.
	status := &shellStatus{}
	if cfg.StatusAddr != "" {
		srv := http.NewServer(cfg.StatusAddr, status, metrics.Registry(), logger)
		shellOpts = append(shellOpts, shell.WithCompanion(srv))
	}

	sh, err := shell.New(shellOpts...)
	if err != nil {
		return nil, err
	}
	status.sh = sh
	return sh, nil
}

func newLocker(cfg config.LockConfig, logger *slog.Logger) (ports.InstanceLocker, error) {
	switch cfg.Backend {
	case config.LockFile, "":
		return lockfile.New(cfg.Dir), nil
	case config.LockRedis:
		return redis.New(cfg.RedisAddr, redis.WithLogger(logger)), nil
	case config.LockNone:
		return memory.NewLocker(), nil
	default:
		return nil, fmt.Errorf("%w: unknown lock backend %q", domain.ErrValidation, cfg.Backend)
	}
}

func replyFor(codec *transport.TextCodec) ports.ReplyFunc {
	if codec.Name() == transport.DefaultEncoding {
		return transport.EchoReply
	}
	return transport.EncodedReply(codec)
}

type shellStatus struct {
	sh *shell.Shell
}

func (s *shellStatus) Mode() domain.Mode             { return s.sh.Mode() }
func (s *shellStatus) Registry() *registry.Registry  { return s.sh.Registry() }
func (s *shellStatus) Transports() []ports.Transport { return s.sh.Transports() }
