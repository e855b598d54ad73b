package transport

import (
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
)

// UDPServer is a datagram listener. A remote address becomes a client on
// its first datagram and stays one until the server stops.
type UDPServer struct {
	opts options
	sub  subscription

	mu        sync.Mutex
	pc        net.PacketConn
	peers     map[string]domain.ConnID
	addrs     map[domain.ConnID]net.Addr
	port      int
	destroyed bool
}

var _ ports.Transport = (*UDPServer)(nil)

// NewUDPServer creates an unstarted UDP server.
func NewUDPServer(opts ...Option) *UDPServer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &UDPServer{
		opts:  o,
		peers: make(map[string]domain.ConnID),
		addrs: make(map[domain.ConnID]net.Addr),
	}
}

func (s *UDPServer) Kind() domain.TransportKind { return domain.TransportUDP }

func (s *UDPServer) Subscribe(events ports.TransportEvents) { s.sub.set(events) }

// Start binds host:port and begins reading datagrams.
func (s *UDPServer) Start(host string, port int) bool {
	s.mu.Lock()
	if s.destroyed || s.pc != nil {
		s.mu.Unlock()
		return false
	}
	pc, err := net.ListenPacket("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		s.mu.Unlock()
		s.opts.logger.Warn("udp listen failed", "port", port, "err", err)
		s.sub.server(s, domain.StateError)
		return false
	}
	s.pc = pc
	s.port = pc.LocalAddr().(*net.UDPAddr).Port
	s.mu.Unlock()

	s.opts.logger.Debug("udp listening", "addr", pc.LocalAddr().String())
	s.sub.server(s, domain.StateListening)
	go s.readLoop(pc)
	return true
}

func (s *UDPServer) readLoop(pc net.PacketConn) {
	buf := make([]byte, s.opts.readSize)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if n > 0 && addr != nil {
			id, fresh, ok := s.peer(pc, addr)
			if !ok {
				return
			}
			if fresh {
				s.sub.client(s, id, domain.StateConnected)
			}
			payload := make([]byte, n)
			copy(payload, buf[:n])
			s.sub.data(s, id, payload)
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.opts.logger.Error("udp read failed", "err", err)
				s.sub.server(s, domain.StateError)
			}
			return
		}
	}
}

// peer returns the connection id of addr, creating it on first contact.
func (s *UDPServer) peer(pc net.PacketConn, addr net.Addr) (domain.ConnID, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pc != pc {
		return 0, false, false
	}
	key := addr.String()
	if id, found := s.peers[key]; found {
		return id, false, true
	}
	id := nextConnID()
	s.peers[key] = id
	s.addrs[id] = addr
	return id, true, true
}

// Stop closes the socket and forgets every peer.
func (s *UDPServer) Stop() bool {
	s.mu.Lock()
	pc := s.pc
	if pc == nil {
		s.mu.Unlock()
		return false
	}
	s.pc = nil
	ids := sortedIDs(s.addrs)
	s.mu.Unlock()

	err := pc.Close()
	for _, id := range ids {
		s.sub.client(s, id, domain.StateClosed)
	}

	s.mu.Lock()
	s.peers = make(map[string]domain.ConnID)
	s.addrs = make(map[domain.ConnID]net.Addr)
	s.mu.Unlock()

	s.sub.server(s, domain.StateShutdown)
	return err == nil
}

// Destroy stops the server if needed and prevents any further Start.
func (s *UDPServer) Destroy() bool {
	s.Stop()
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
	return true
}

func (s *UDPServer) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pc != nil
}

// Port returns the bound port, or the last bound port after Stop.
func (s *UDPServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *UDPServer) Clients() []domain.ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.addrs)
}

func (s *UDPServer) WriteAll(payload []byte) bool {
	s.mu.Lock()
	pc := s.pc
	addrs := make([]net.Addr, 0, len(s.addrs))
	for _, a := range s.addrs {
		addrs = append(addrs, a)
	}
	s.mu.Unlock()
	if pc == nil {
		return false
	}

	ok := true
	for _, a := range addrs {
		if _, err := pc.WriteTo(payload, a); err != nil {
			ok = false
			continue
		}
		s.sub.server(s, domain.StateSent)
	}
	return ok
}

func (s *UDPServer) WriteTo(id domain.ConnID, payload []byte) bool {
	s.mu.Lock()
	pc := s.pc
	addr, found := s.addrs[id]
	s.mu.Unlock()
	if pc == nil || !found {
		return false
	}
	if _, err := pc.WriteTo(payload, addr); err != nil {
		return false
	}
	s.sub.server(s, domain.StateSent)
	return true
}

func (s *UDPServer) RemoteAddr(id domain.ConnID) (string, int, bool) {
	s.mu.Lock()
	addr, found := s.addrs[id]
	s.mu.Unlock()
	if !found {
		return "", 0, false
	}
	return splitAddr(addr)
}
