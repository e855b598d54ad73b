package shell

import (
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalHook_Fires(t *testing.T) {
	h := NewSignalHook(nil)
	var calls atomic.Int32

	unregister := h.Register(func() { calls.Add(1) })
	defer unregister()
	h.Register(func() { calls.Add(10) })

	h.mu.Lock()
	ch := h.ch
	h.mu.Unlock()
	require.NotNil(t, ch, "signals are intercepted once a callback is registered")

	ch <- syscall.SIGTERM

	assert.Eventually(t, func() bool { return calls.Load() == 11 }, time.Second, 5*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Nil(t, h.ch, "default handling is restored after the first signal")
}

func TestSignalHook_Unregister(t *testing.T) {
	h := NewSignalHook(nil)

	first := h.Register(func() {})
	second := h.Register(func() {})

	first()
	first()
	h.mu.Lock()
	assert.NotNil(t, h.ch)
	h.mu.Unlock()

	second()
	h.mu.Lock()
	assert.Nil(t, h.ch, "no interception without callbacks")
	assert.Empty(t, h.fns)
	h.mu.Unlock()

	// Re-arms on the next registration.
	third := h.Register(func() {})
	defer third()
	h.mu.Lock()
	assert.NotNil(t, h.ch)
	h.mu.Unlock()
}
