package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/conshell/pkg/adapters/memory"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Contract(t *testing.T) {
	l := memory.NewLocker()
	ports.RunInstanceLockerContract(t, func() ports.InstanceLocker { return l })
}

func TestMemoryLocker_Held(t *testing.T) {
	l := memory.NewLocker()
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, "PPTC.Service")
	require.NoError(t, err)
	assert.True(t, l.Held("PPTC.Service"))

	require.NoError(t, unlock(ctx))
	assert.False(t, l.Held("PPTC.Service"))
}

func TestMemoryLocker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewLocker().Acquire(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
