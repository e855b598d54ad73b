package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunInstanceLockerContract runs a suite of tests to verify that an
// InstanceLocker implementation adheres to the interface contract.
// newLocker must return lockers that share one lock namespace, so that two of
// them model two processes racing for the same instance.
func RunInstanceLockerContract(t *testing.T, newLocker func() InstanceLocker) {
	ctx := context.Background()
	name := fmt.Sprintf("contract-%d", time.Now().UnixNano())

	t.Run("Acquire and Release", func(t *testing.T) {
		l := newLocker()
		unlock, err := l.Acquire(ctx, name+"-a")
		require.NoError(t, err, "first Acquire should succeed")
		require.NotNil(t, unlock)
		assert.NoError(t, unlock(ctx))
	})

	t.Run("Conflict", func(t *testing.T) {
		first, second := newLocker(), newLocker()

		unlock, err := first.Acquire(ctx, name+"-b")
		require.NoError(t, err)

		_, err = second.Acquire(ctx, name+"-b")
		assert.ErrorIs(t, err, domain.ErrInstanceLocked, "second holder must be rejected")

		require.NoError(t, unlock(ctx))

		unlock2, err := second.Acquire(ctx, name+"-b")
		require.NoError(t, err, "lock must be free after release")
		assert.NoError(t, unlock2(ctx))
	})

	t.Run("Distinct Names", func(t *testing.T) {
		l := newLocker()
		u1, err := l.Acquire(ctx, name+"-c1")
		require.NoError(t, err)
		u2, err := l.Acquire(ctx, name+"-c2")
		require.NoError(t, err)
		assert.NoError(t, u1(ctx))
		assert.NoError(t, u2(ctx))
	})

	t.Run("Release Twice", func(t *testing.T) {
		l := newLocker()
		unlock, err := l.Acquire(ctx, name+"-d")
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
		assert.NoError(t, unlock(ctx), "second release should be a no-op")
	})
}
