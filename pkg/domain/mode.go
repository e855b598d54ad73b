package domain

// Mode is the process-wide execution mode of a shell.
type Mode int

const (
	// ModeIdle runs the startup command line once. Initial and terminal mode.
	ModeIdle Mode = iota
	// ModeContinuous reads command lines from the console until quit.
	ModeContinuous
	// ModeNetworkService serves the network transports; console input is ignored.
	ModeNetworkService
	// ModeContinuousNetworkService serves the network transports and the console.
	ModeContinuousNetworkService
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModeContinuous:
		return "Continuous"
	case ModeNetworkService:
		return "NetworkService"
	case ModeContinuousNetworkService:
		return "ContinuousNetworkService"
	default:
		return "Unknown"
	}
}

// IsService reports whether the network transports are owned by this mode.
func (m Mode) IsService() bool {
	return m == ModeNetworkService || m == ModeContinuousNetworkService
}

// ReadsConsole reports whether the interactive read loop is active in this mode.
func (m Mode) ReadsConsole() bool {
	return m == ModeContinuous || m == ModeContinuousNetworkService
}

// ModeTransition is one edge of the mode state machine. Command is the name
// of the built-in, without marker, that performs it.
type ModeTransition struct {
	From    Mode
	To      Mode
	Command string
}

// ModeTransitions lists every legal mode change.
var ModeTransitions = []ModeTransition{
	{From: ModeIdle, To: ModeContinuous, Command: "-run"},
	{From: ModeContinuous, To: ModeIdle, Command: "-quit"},
	{From: ModeIdle, To: ModeNetworkService, Command: "-start"},
	{From: ModeIdle, To: ModeContinuousNetworkService, Command: "-start"},
	{From: ModeNetworkService, To: ModeIdle, Command: "-stop"},
	{From: ModeContinuousNetworkService, To: ModeIdle, Command: "-stop"},
}
