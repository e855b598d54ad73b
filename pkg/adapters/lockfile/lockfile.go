// Package lockfile implements the instance lock as an advisory lock on a file.
//
// The operating system drops the lock when the holding process dies, so a
// crash never leaves a stale instance behind.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
)

var errWouldBlock = errors.New("lock held by another process")

// held keeps every locked file reachable until its unlock runs. Dropping the
// last reference to an *os.File lets its finalizer close the descriptor, and
// closing it releases the lock.
var held = struct {
	sync.Mutex
	files map[string]*os.File
}{files: make(map[string]*os.File)}

// Locker implements ports.InstanceLocker with one file per lock name.
type Locker struct {
	dir string
}

// New creates a locker that keeps its files in dir.
// An empty dir means os.TempDir().
func New(dir string) *Locker {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Locker{dir: dir}
}

// Path returns the file backing the lock called name.
func (l *Locker) Path(name string) string {
	return filepath.Join(l.dir, fileName(name))
}

// Acquire opens the lock file and takes an exclusive lock without waiting.
func (l *Locker) Acquire(ctx context.Context, name string) (ports.UnlockFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}

	path := l.Path(name)
	held.Lock()
	defer held.Unlock()
	if _, ok := held.files[path]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInstanceLocked, name)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInstanceLocked, name)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// Owner pid, for humans.
	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	held.files[path] = f

	var once sync.Once
	return func(context.Context) error {
		var err error
		once.Do(func() {
			held.Lock()
			delete(held.files, path)
			held.Unlock()
			err = errors.Join(unlockFile(f), f.Close())
		})
		return err
	}, nil
}

func fileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		b.WriteString("conshell")
	}
	return b.String() + ".lock"
}
