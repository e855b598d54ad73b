package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
)

// Service runs a set of transports (TCP and UDP by default) on one port.
// It prints their lifecycle to the console writer and forwards received
// payloads to the data handler.
type Service struct {
	opts       options
	handler    ports.DataHandler
	transports []ports.Transport

	mu  sync.Mutex
	ctx context.Context
}

var _ ports.TransportEvents = (*Service)(nil)

// NewService creates a service. A nil handler drops received data.
func NewService(handler ports.DataHandler, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ts := o.transports
	if len(ts) == 0 {
		ts = []ports.Transport{
			NewTCPServer(WithLogger(o.logger), WithReadSize(o.readSize)),
			NewUDPServer(WithLogger(o.logger), WithReadSize(o.readSize)),
		}
	}
	return &Service{opts: o, handler: handler, transports: ts, ctx: context.Background()}
}

// Transports returns the managed transports.
func (s *Service) Transports() []ports.Transport {
	return s.transports
}

// Start subscribes to and starts every transport independently. A transport
// that fails to bind is destroyed; the others keep running. It returns the
// number of transports started.
func (s *Service) Start(ctx context.Context, host string, port int) int {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	started := 0
	for _, t := range s.transports {
		t.Subscribe(s)
		if t.Start(host, port) {
			started++
			fmt.Fprintf(s.opts.out, "%s server started on port %d, waiting for clients ...\n", t.Kind(), t.Port())
			continue
		}
		t.Subscribe(nil)
		t.Destroy()
		s.opts.logger.Warn("transport failed to start", "transport", t.Kind(), "port", port)
		fmt.Fprintf(s.opts.out, "%s server failed to start, check whether port %d is in use\n", t.Kind(), port)
	}
	return started
}

// Unsubscribe detaches the service from every transport.
func (s *Service) Unsubscribe() {
	for _, t := range s.transports {
		t.Subscribe(nil)
	}
}

// Destroy destroys every transport and prints the outcome of each.
// Safe to call repeatedly.
func (s *Service) Destroy() bool {
	ok := true
	for _, t := range s.transports {
		if t.Destroy() {
			fmt.Fprintf(s.opts.out, "%s server stopped\n", t.Kind())
		} else {
			ok = false
			fmt.Fprintf(s.opts.out, "%s server failed to stop\n", t.Kind())
		}
	}
	return ok
}

// Broadcast writes payload to every client of every started transport.
// It returns the number of transports that accepted the write.
func (s *Service) Broadcast(payload []byte) int {
	n := 0
	for _, t := range s.transports {
		if t.IsStarted() && t.WriteAll(payload) {
			n++
		}
	}
	return n
}

func (s *Service) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Service) ServerStateChanged(t ports.Transport, state domain.ServerState) {
	s.opts.logger.Debug("server state changed", "transport", t.Kind(), "state", state)
	fmt.Fprintf(s.opts.out, "<%s> server state changed: %s\n", t.Kind(), state)
}

func (s *Service) ClientStateChanged(t ports.Transport, id domain.ConnID, state domain.ServerState) {
	switch state {
	case domain.StateConnected:
		s.opts.metrics.ConnectionOpened(t.Kind())
	case domain.StateClosed:
		s.opts.metrics.ConnectionClosed(t.Kind())
	}
	s.opts.logger.Debug("client state changed", "transport", t.Kind(), "conn", id, "state", state)
	if host, port, ok := t.RemoteAddr(id); ok {
		fmt.Fprintf(s.opts.out, "<%s> remote client %s:%d %s\n", t.Kind(), host, port, state)
	}
}

func (s *Service) DataReceived(t ports.Transport, id domain.ConnID, payload []byte) {
	s.opts.metrics.BytesReceived(t.Kind(), len(payload))
	if host, port, ok := t.RemoteAddr(id); ok {
		fmt.Fprintf(s.opts.out, "<%s> receive remote client %s:%d data.\n", t.Kind(), host, port)
	}
	if s.handler != nil {
		s.handler.OnData(s.context(), t, id, payload)
	}
}
