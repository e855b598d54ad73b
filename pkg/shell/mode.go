package shell

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/conshell/pkg/domain"
)

// modeCell guards the execution mode. Changes go through Transition only.
type modeCell struct {
	mu   sync.Mutex
	mode domain.Mode
}

func (c *modeCell) Get() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Transition moves to `to` if the current mode is one of from and returns the
// previous mode. Otherwise the mode is unchanged and the error wraps
// domain.ErrIllegalTransition.
func (c *modeCell) Transition(to domain.Mode, from ...domain.Mode) (domain.Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(from, c.mode) {
		return c.mode, fmt.Errorf("%w: %s to %s", domain.ErrIllegalTransition, c.mode, to)
	}
	prev := c.mode
	c.mode = to
	return prev, nil
}
