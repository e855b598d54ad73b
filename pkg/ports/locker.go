package ports

import "context"

// UnlockFunc releases an instance lock.
type UnlockFunc func(ctx context.Context) error

// InstanceLocker provides the process-wide single-instance lock used before
// entering a network service mode.
type InstanceLocker interface {
	// Acquire attempts to take the lock named name without blocking.
	// It returns domain.ErrInstanceLocked (wrapped) when another holder exists.
	// The lock lives until the process exits; UnlockFunc exists for tests and
	// orderly shutdown of embedded shells.
	Acquire(ctx context.Context, name string) (UnlockFunc, error)
}

// ShutdownHook intercepts abrupt termination requests (Ctrl+C, SIGTERM, console close).
type ShutdownHook interface {
	// Register arranges for fn to run once when termination is requested.
	// The returned function removes the registration.
	Register(fn func()) (unregister func())
}
