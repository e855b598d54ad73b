package domain

import "strconv"

// ConnID identifies one peer connection. IDs are unique for the process lifetime.
type ConnID uint64

func (id ConnID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// TransportKind names the transport a connection belongs to.
type TransportKind string

const (
	TransportTCP TransportKind = "TCP"
	TransportUDP TransportKind = "UDP"
)

// ServerState enumerates transport lifecycle notifications.
type ServerState int

const (
	StateConnected ServerState = iota
	StateClosed
	StateListening
	StateAccepted
	StateSent
	StateShutdown
	StateError
)

func (s ServerState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateClosed:
		return "Closed"
	case StateListening:
		return "Listening"
	case StateAccepted:
		return "Accepted"
	case StateSent:
		return "Sent"
	case StateShutdown:
		return "Shutdown"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// OriginKind names the input source of a dispatch.
type OriginKind string

const (
	OriginConsole OriginKind = "console"
	OriginTCP     OriginKind = "tcp"
	OriginUDP     OriginKind = "udp"
	OriginMCP     OriginKind = "mcp"
)

// Origin is the implicit reply target of one dispatch.
// It is only valid for the duration of that dispatch.
type Origin struct {
	Kind OriginKind
	Conn ConnID
}

// ConsoleOrigin is the origin of lines typed on the interactive console.
var ConsoleOrigin = Origin{Kind: OriginConsole}

// OriginFor returns the origin of a payload received on the given transport.
func OriginFor(kind TransportKind, id ConnID) Origin {
	if kind == TransportUDP {
		return Origin{Kind: OriginUDP, Conn: id}
	}
	return Origin{Kind: OriginTCP, Conn: id}
}

// IsRemote reports whether the dispatch came from a network peer.
func (o Origin) IsRemote() bool {
	return o.Kind == OriginTCP || o.Kind == OriginUDP
}
