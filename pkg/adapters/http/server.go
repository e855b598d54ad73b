// Package http serves the read-only status surface of a running shell:
// health and mode, the command catalog and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the view of the shell exposed over HTTP.
type Status interface {
	Mode() domain.Mode
	Registry() *registry.Registry
	Transports() []ports.Transport
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string            `json:"status"`
	Mode       string            `json:"mode"`
	Transports []TransportStatus `json:"transports"`
}

// TransportStatus describes one transport in HealthResponse.
type TransportStatus struct {
	Kind    string `json:"kind"`
	Started bool   `json:"started"`
	Port    int    `json:"port"`
	Clients int    `json:"clients"`
}

// CommandResponse describes one registered command.
type CommandResponse struct {
	Token       string `json:"token"`
	Args        string `json:"args,omitempty"`
	Description string `json:"description"`
	Arity       int    `json:"arity"`
	Control     bool   `json:"control"`
	Usage       string `json:"usage"`
}

// NewHandler creates the router. A nil gatherer disables /metrics.
func NewHandler(status Status, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:     "ok",
			Mode:       status.Mode().String(),
			Transports: []TransportStatus{},
		}
		for _, t := range status.Transports() {
			resp.Transports = append(resp.Transports, TransportStatus{
				Kind:    string(t.Kind()),
				Started: t.IsStarted(),
				Port:    t.Port(),
				Clients: len(t.Clients()),
			})
		}
		writeJSON(w, resp)
	})

	r.Get("/commands", func(w http.ResponseWriter, r *http.Request) {
		reg := status.Registry()
		resp := []CommandResponse{}
		for _, d := range reg.Descriptors() {
			resp = append(resp, CommandResponse{
				Token:       reg.Token(d),
				Args:        d.Args,
				Description: d.Description,
				Arity:       d.Arity,
				Control:     d.Control,
				Usage:       reg.Usage(d),
			})
		}
		writeJSON(w, resp)
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("status response encode failed", "error", err)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Server runs the status handler on its own listener. It is started and
// stopped together with the network service.
type Server struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// NewServer creates a status server listening on addr (e.g. ":9101").
func NewServer(addr string, status Status, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{addr: addr, handler: NewHandler(status, gatherer), logger: logger}
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status server: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.srv, s.ln = srv, ln

	go func() {
		s.logger.Info("status server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server failed", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.ln = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not stop status server gracefully: %w", err)
	}
	return nil
}
