package transport

import (
	"io"
	"log/slog"

	"github.com/aretw0/conshell/pkg/observability"
	"github.com/aretw0/conshell/pkg/ports"
)

// DefaultReadSize is the size of one socket read.
const DefaultReadSize = 4096

type options struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	out        io.Writer
	readSize   int
	transports []ports.Transport
}

func defaultOptions() options {
	return options{
		logger:   slog.New(slog.DiscardHandler),
		out:      io.Discard,
		readSize: DefaultReadSize,
	}
}

// Option configures servers and services in this package.
type Option func(*options)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records connection and traffic metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithOutput sets the console writer that receives lifecycle lines.
// Only used by Service.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithReadSize sets the buffer size of a single socket read.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithTransports replaces the default TCP and UDP servers of a Service.
func WithTransports(ts ...ports.Transport) Option {
	return func(o *options) {
		o.transports = ts
	}
}
