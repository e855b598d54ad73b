package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
)

// ModeOverlay marks the active mode on the diagram.
type ModeOverlay struct {
	Current domain.Mode
}

// GenerateMermaid produces a Mermaid state diagram of the execution modes.
// Edges are labeled with the command token (marker + name) that performs them.
// Idle is both the initial and the terminal state.
func GenerateMermaid(transitions []domain.ModeTransition, marker string, overlay *ModeOverlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", domain.ModeIdle))

	for _, t := range transitions {
		sb.WriteString(fmt.Sprintf("    %s --> %s: %s\n", t.From, t.To, sanitizeLabel(marker+t.Command)))
	}
	sb.WriteString(fmt.Sprintf("    %s --> [*]\n", domain.ModeIdle))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000\n")
		sb.WriteString(fmt.Sprintf("    class %s current\n", overlay.Current))
	}

	return sb.String()
}

// sanitizeLabel keeps Mermaid's transition label syntax intact.
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, ":", "#58;")
	return strings.ReplaceAll(s, "\"", "'")
}
