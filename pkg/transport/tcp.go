package transport

import (
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
)

// TCPServer is a stream listener. Each accepted connection becomes one client.
type TCPServer struct {
	opts options
	sub  subscription

	mu        sync.Mutex
	ln        net.Listener
	conns     map[domain.ConnID]net.Conn
	port      int
	destroyed bool
}

var _ ports.Transport = (*TCPServer)(nil)

// NewTCPServer creates an unstarted TCP server.
func NewTCPServer(opts ...Option) *TCPServer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TCPServer{opts: o, conns: make(map[domain.ConnID]net.Conn)}
}

func (s *TCPServer) Kind() domain.TransportKind { return domain.TransportTCP }

func (s *TCPServer) Subscribe(events ports.TransportEvents) { s.sub.set(events) }

// Start binds host:port and begins accepting clients.
func (s *TCPServer) Start(host string, port int) bool {
	s.mu.Lock()
	if s.destroyed || s.ln != nil {
		s.mu.Unlock()
		return false
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		s.mu.Unlock()
		s.opts.logger.Warn("tcp listen failed", "port", port, "err", err)
		s.sub.server(s, domain.StateError)
		return false
	}
	s.ln = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.mu.Unlock()

	s.opts.logger.Debug("tcp listening", "addr", ln.Addr().String())
	s.sub.server(s, domain.StateListening)
	go s.acceptLoop(ln)
	return true
}

func (s *TCPServer) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.opts.logger.Error("tcp accept failed", "err", err)
				s.sub.server(s, domain.StateError)
			}
			return
		}

		id := nextConnID()
		s.mu.Lock()
		if s.ln != ln {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[id] = conn
		s.mu.Unlock()

		s.sub.server(s, domain.StateAccepted)
		s.sub.client(s, id, domain.StateConnected)
		go s.readLoop(id, conn)
	}
}

func (s *TCPServer) readLoop(id domain.ConnID, conn net.Conn) {
	buf := make([]byte, s.opts.readSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			s.sub.data(s, id, payload)
		}
		if err != nil {
			break
		}
	}

	s.sub.client(s, id, domain.StateClosed)
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	_ = conn.Close()
}

// Stop closes the listener and every client connection. Close notifications
// for clients may arrive after Stop returns.
func (s *TCPServer) Stop() bool {
	s.mu.Lock()
	ln := s.ln
	if ln == nil {
		s.mu.Unlock()
		return false
	}
	s.ln = nil
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	err := ln.Close()
	for _, c := range conns {
		_ = c.Close()
	}
	s.sub.server(s, domain.StateShutdown)
	return err == nil
}

// Destroy stops the server if needed and prevents any further Start.
func (s *TCPServer) Destroy() bool {
	s.Stop()
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
	return true
}

func (s *TCPServer) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln != nil
}

// Port returns the bound port, or the last bound port after Stop.
func (s *TCPServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *TCPServer) Clients() []domain.ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.conns)
}

func (s *TCPServer) WriteAll(payload []byte) bool {
	s.mu.Lock()
	if s.ln == nil {
		s.mu.Unlock()
		return false
	}
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	ok := true
	for _, c := range conns {
		if _, err := c.Write(payload); err != nil {
			ok = false
			continue
		}
		s.sub.server(s, domain.StateSent)
	}
	return ok
}

func (s *TCPServer) WriteTo(id domain.ConnID, payload []byte) bool {
	s.mu.Lock()
	c, found := s.conns[id]
	s.mu.Unlock()
	if !found {
		return false
	}
	if _, err := c.Write(payload); err != nil {
		return false
	}
	s.sub.server(s, domain.StateSent)
	return true
}

func (s *TCPServer) RemoteAddr(id domain.ConnID) (string, int, bool) {
	s.mu.Lock()
	c, found := s.conns[id]
	s.mu.Unlock()
	if !found {
		return "", 0, false
	}
	return splitAddr(c.RemoteAddr())
}
