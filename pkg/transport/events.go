package transport

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
)

var lastConnID atomic.Uint64

// nextConnID returns a process-unique connection id.
func nextConnID() domain.ConnID {
	return domain.ConnID(lastConnID.Add(1))
}

// subscription holds the current event receiver of a transport.
type subscription struct {
	mu     sync.RWMutex
	events ports.TransportEvents
}

func (s *subscription) set(events ports.TransportEvents) {
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
}

func (s *subscription) get() ports.TransportEvents {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

func (s *subscription) server(t ports.Transport, state domain.ServerState) {
	if ev := s.get(); ev != nil {
		ev.ServerStateChanged(t, state)
	}
}

func (s *subscription) client(t ports.Transport, id domain.ConnID, state domain.ServerState) {
	if ev := s.get(); ev != nil {
		ev.ClientStateChanged(t, id, state)
	}
}

func (s *subscription) data(t ports.Transport, id domain.ConnID, payload []byte) {
	if ev := s.get(); ev != nil {
		ev.DataReceived(t, id, payload)
	}
}
