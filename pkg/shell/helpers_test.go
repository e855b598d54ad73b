package shell

import (
	"bytes"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/conshell/pkg/adapters/memory"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type exitRecorder struct {
	mu    sync.Mutex
	codes []int
}

func (e *exitRecorder) exit(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.codes = append(e.codes, code)
}

func (e *exitRecorder) Codes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.codes)
}

type fakeHook struct {
	mu  sync.Mutex
	fns []func()
}

func (h *fakeHook) Register(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
	return func() {}
}

func (h *fakeHook) Fire() {
	h.mu.Lock()
	fns := slices.Clone(h.fns)
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type fakeTransport struct {
	kind    domain.TransportKind
	startOK bool

	mu        sync.Mutex
	started   bool
	destroyed int
	written   []string
	clients   map[domain.ConnID]string
	events    ports.TransportEvents
}

func newFakeTransport(kind domain.TransportKind, startOK bool) *fakeTransport {
	return &fakeTransport{kind: kind, startOK: startOK, clients: map[domain.ConnID]string{}}
}

func (f *fakeTransport) Kind() domain.TransportKind { return f.kind }

func (f *fakeTransport) Start(string, int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.startOK || f.destroyed > 0 {
		return false
	}
	f.started = true
	return true
}

func (f *fakeTransport) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := f.started
	f.started = false
	return was
}

func (f *fakeTransport) Destroy() bool {
	f.Stop()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	return true
}

func (f *fakeTransport) IsStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeTransport) Port() int { return DefaultPort }

func (f *fakeTransport) Clients() []domain.ConnID {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]domain.ConnID, 0, len(f.clients))
	for id := range f.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (f *fakeTransport) WriteAll(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, string(payload))
	return f.started
}

func (f *fakeTransport) WriteTo(_ domain.ConnID, payload []byte) bool {
	return f.WriteAll(payload)
}

func (f *fakeTransport) RemoteAddr(id domain.ConnID) (string, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr, ok := f.clients[id]
	if !ok {
		return "", 0, false
	}
	return addr, 5000 + int(id), true
}

func (f *fakeTransport) Subscribe(events ports.TransportEvents) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
}

func (f *fakeTransport) Destroyed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

func (f *fakeTransport) Written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.written)
}

type testShell struct {
	*Shell
	out    *syncBuffer
	exits  *exitRecorder
	locker *memory.Locker
	hook   *fakeHook
}

// newTestShell builds a shell that never exits the process, reads console
// input from in and never sleeps on stop.
func newTestShell(t *testing.T, in io.Reader, opts ...Option) *testShell {
	t.Helper()
	if in == nil {
		in = strings.NewReader("")
	}
	ts := &testShell{
		out:    &syncBuffer{},
		exits:  &exitRecorder{},
		locker: memory.NewLocker(),
		hook:   &fakeHook{},
	}
	base := []Option{
		WithConsole(NewConsole(in, ts.out, "Input")),
		WithExit(ts.exits.exit),
		WithLocker(ts.locker, ""),
		WithShutdownHook(ts.hook),
		WithFlushDelay(0),
		WithDrainTimeout(2 * time.Second),
	}
	s, err := New(append(base, opts...)...)
	require.NoError(t, err)
	ts.Shell = s
	return ts
}
