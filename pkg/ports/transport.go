package ports

import (
	"context"

	"github.com/aretw0/conshell/pkg/domain"
)

// TransportEvents receives notifications from a Transport. Calls arrive on
// goroutines owned by the transport.
type TransportEvents interface {
	ServerStateChanged(t Transport, state domain.ServerState)
	ClientStateChanged(t Transport, id domain.ConnID, state domain.ServerState)
	DataReceived(t Transport, id domain.ConnID, payload []byte)
}

// Transport is a listener that produces connection and data events.
// Implementations never panic on misuse; failures are reported as false.
type Transport interface {
	Kind() domain.TransportKind
	// Start binds host:port. It returns false on bind failure or after Destroy.
	Start(host string, port int) bool
	// Stop disconnects every client and closes the listener.
	// It returns false when the transport was not started.
	Stop() bool
	// Destroy stops the transport and releases it for good. Safe to repeat.
	Destroy() bool
	IsStarted() bool
	Port() int
	Clients() []domain.ConnID
	// WriteAll broadcasts payload to every open connection.
	WriteAll(payload []byte) bool
	// WriteTo sends payload to one connection.
	WriteTo(id domain.ConnID, payload []byte) bool
	RemoteAddr(id domain.ConnID) (address string, port int, ok bool)
	// Subscribe installs the event receiver; nil removes it.
	Subscribe(events TransportEvents)
}

// DataHandler is the strategy invoked for every payload received by a transport.
type DataHandler interface {
	OnData(ctx context.Context, t Transport, id domain.ConnID, payload []byte)
}

// DataHandlerFunc adapts a function to DataHandler.
type DataHandlerFunc func(ctx context.Context, t Transport, id domain.ConnID, payload []byte)

func (f DataHandlerFunc) OnData(ctx context.Context, t Transport, id domain.ConnID, payload []byte) {
	f(ctx, t, id, payload)
}

// ReplyFunc receives the output captured while dispatching one line that
// arrived on connection id of transport t.
type ReplyFunc func(t Transport, id domain.ConnID, output []byte)
