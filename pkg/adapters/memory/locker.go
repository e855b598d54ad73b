package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
)

// Locker implements ports.InstanceLocker in memory.
// Lock names are shared by every caller of the same Locker value.
// Safe for concurrent use.
type Locker struct {
	mu   sync.Mutex
	held map[string]uint64
	seq  uint64
}

// NewLocker creates an empty in-memory locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]uint64)}
}

// Acquire takes name if nobody holds it.
func (l *Locker) Acquire(ctx context.Context, name string) (ports.UnlockFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInstanceLocked, name)
	}
	l.seq++
	token := l.seq
	l.held[name] = token

	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only the current owner may release.
		if l.held[name] == token {
			delete(l.held, name)
		}
		return nil
	}, nil
}

// Held reports whether name is currently locked.
func (l *Locker) Held(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[name]
	return ok
}
