package shell

import (
	"bufio"
	"context"
	"io"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/conshell/pkg/adapters/lockfile"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakePair struct {
	tcp, udp *fakeTransport
}

func newFakePair(tcpOK, udpOK bool) *fakePair {
	return &fakePair{
		tcp: newFakeTransport(domain.TransportTCP, tcpOK),
		udp: newFakeTransport(domain.TransportUDP, udpOK),
	}
}

func (p *fakePair) factory() []ports.Transport {
	return []ports.Transport{p.tcp, p.udp}
}

// startAsync runs the given Idle command line on its own goroutine and
// returns a channel closed when the dispatch returns.
func startAsync(s *testShell, args ...string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(context.Background(), args)
	}()
	return done
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out")
	}
}

func TestStart_NetworkServiceBlocksUntilStop(t *testing.T) {
	pair := newFakePair(true, true)
	s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool {
		return s.Mode() == domain.ModeNetworkService && pair.tcp.IsStarted() && pair.udp.IsStarted()
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.locker.Held("Input.Service"))

	select {
	case <-done:
		t.Fatal("--start must block in NetworkService mode")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Stop())
	waitClosed(t, done)

	assert.Equal(t, domain.ModeIdle, s.Mode())
	assert.Equal(t, []int{0}, s.exits.Codes())
	assert.Equal(t, 1, pair.tcp.Destroyed())
	assert.Equal(t, 1, pair.udp.Destroyed())
	assert.Nil(t, s.Transports())

	out := s.out.String()
	assert.Contains(t, out, "Console Application starting on port 6101 ...")
	assert.Contains(t, out, "Stopping service ...")
	assert.Contains(t, out, "TCP server stopped")
	assert.Contains(t, out, "UDP server stopped")

	assert.ErrorIs(t, s.Stop(), domain.ErrIllegalTransition, "second stop is rejected")
}

func TestStart_PortArgument(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		pair := newFakePair(true, true)
		s := newTestShell(t, nil, WithTransports(pair.factory))

		require.NoError(t, s.Run(context.Background(), []string{"--start", "abc"}))
		assert.Equal(t, "Error:--start invalid argument: \"abc\" is not a positive integer\n", s.out.String())
		assert.Equal(t, domain.ModeIdle, s.Mode())
		assert.False(t, s.locker.Held("Input.Service"))
		assert.Equal(t, []int{0}, s.exits.Codes())
	})

	t.Run("Explicit", func(t *testing.T) {
		pair := newFakePair(true, true)
		s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory))

		done := startAsync(s, "--start", "7200")
		require.Eventually(t, func() bool { return strings.Contains(s.out.String(), "starting on port 7200") },
			2*time.Second, 5*time.Millisecond)
		require.NoError(t, s.Stop())
		waitClosed(t, done)
	})
}

func TestStart_InstanceConflict(t *testing.T) {
	pair := newFakePair(true, true)
	s := newTestShell(t, nil, WithTransports(pair.factory))

	unlock, err := s.locker.Acquire(context.Background(), "Input.Service")
	require.NoError(t, err)
	defer unlock(context.Background())

	require.NoError(t, s.Run(context.Background(), []string{"--start", "-v"}))

	assert.Equal(t, "Error:--start instance already running: Input.Service\n", s.out.String(), "-v is not processed")
	assert.Equal(t, []int{0}, s.exits.Codes(), "an Idle error abort exits with 0")
	assert.Equal(t, domain.ModeIdle, s.Mode())
	assert.False(t, pair.tcp.IsStarted())
	assert.False(t, pair.udp.IsStarted())
}

func TestStart_PartialTransportFailure(t *testing.T) {
	pair := newFakePair(true, false)
	s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool {
		return strings.Contains(s.out.String(), "UDP server failed to start")
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, pair.tcp.IsStarted())
	assert.False(t, pair.udp.IsStarted())
	assert.Equal(t, domain.ModeNetworkService, s.Mode(), "host loop survives")

	require.NoError(t, s.Stop())
	waitClosed(t, done)
	assert.Equal(t, []int{0}, s.exits.Codes())
}

func TestStart_ShutdownHookStops(t *testing.T) {
	pair := newFakePair(true, true)
	s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool { return pair.tcp.IsStarted() }, 2*time.Second, 5*time.Millisecond)

	s.hook.Fire()
	waitClosed(t, done)
	assert.Equal(t, []int{0}, s.exits.Codes())
	assert.Equal(t, 1, pair.tcp.Destroyed())
}

func TestStart_ContinuousServiceReadsConsole(t *testing.T) {
	pair := newFakePair(true, true)
	log := &callLog{}
	pr, pw := io.Pipe()
	s := newTestShell(t, pr, WithTransports(pair.factory), WithCommands(hostCommands(log)...))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool { return pair.tcp.IsStarted() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ModeContinuousNetworkService, s.Mode())

	_, err := io.WriteString(pw, "-a -nope\n-b\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(log.Calls()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, s.exits.Codes(), "errors are not fatal in service mode")

	_, err = io.WriteString(pw, "--stop\n")
	require.NoError(t, err)
	waitClosed(t, done)
	assert.Equal(t, []int{0}, s.exits.Codes())
	assert.Equal(t, []string{"a", "b"}, log.Calls())
}

func TestStart_ConsoleEOFKeepsServing(t *testing.T) {
	pair := newFakePair(true, true)
	s := newTestShell(t, strings.NewReader(""), WithTransports(pair.factory))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool { return pair.tcp.IsStarted() }, 2*time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("console EOF must not end the service")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, domain.ModeContinuousNetworkService, s.Mode())

	require.NoError(t, s.Stop())
	waitClosed(t, done)
}

func TestStop_WaitsForRunningCommands(t *testing.T) {
	pair := newFakePair(true, true)
	release := make(chan struct{})
	entered := make(chan struct{})
	slow := registry.Command("slow", "", "blocks until released", 0, func(context.Context, *registry.Invocation) error {
		close(entered)
		<-release
		return nil
	})
	s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory), WithCommands(slow))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool { return pair.tcp.IsStarted() }, 2*time.Second, 5*time.Millisecond)

	origin := domain.OriginFor(domain.TransportTCP, 1)
	go func() { _ = s.Dispatch(context.Background(), []string{"-slow"}, origin, io.Discard) }()
	<-entered

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = s.Stop()
	}()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, s.exits.Codes(), "stop waits for the running command")
	assert.Equal(t, 0, pair.tcp.Destroyed())

	close(release)
	waitClosed(t, stopped)
	waitClosed(t, done)
	assert.Equal(t, []int{0}, s.exits.Codes())
	assert.Equal(t, 1, pair.tcp.Destroyed())
}

func TestBroadcastAndClients(t *testing.T) {
	pair := newFakePair(true, true)
	pair.tcp.clients[7] = "10.0.0.7"
	s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory))

	enterContinuous(t, s.Shell)
	require.NoError(t, s.Dispatch(context.Background(), []string{"-bc", "hello"}, domain.ConsoleOrigin, s.out))
	assert.Contains(t, s.out.String(), "Error:-bc illegal mode transition: broadcast requires a network service mode")
	require.NoError(t, s.Dispatch(context.Background(), []string{"-cs"}, domain.ConsoleOrigin, s.out))
	assert.Contains(t, s.out.String(), "Message:network service is not running")
	_, err := s.mode.Transition(domain.ModeIdle, domain.ModeContinuous)
	require.NoError(t, err)

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool { return pair.tcp.IsStarted() && pair.udp.IsStarted() }, 2*time.Second, 5*time.Millisecond)

	var out syncBuffer
	require.NoError(t, s.Dispatch(context.Background(), []string{"-of", "json", "-bc", "hello world", "-cs"}, domain.ConsoleOrigin, &out))

	assert.Equal(t, []string{"hello world\n"}, pair.tcp.Written())
	assert.Equal(t, []string{"hello world\n"}, pair.udp.Written())

	// Two JSON documents: broadcast summary, then the client listing.
	text := out.String()
	docs := strings.SplitAfterN(text, "}\n", 2)
	require.Len(t, docs, 2, text)
	assert.Equal(t, int64(2), gjson.Get(docs[0], "Transports").Int())
	assert.Equal(t, "10.0.0.7:5007", gjson.Get(docs[1], "TCP.0").String())
	assert.True(t, gjson.Get(docs[1], "UDP").IsArray())

	require.NoError(t, s.Stop())
	waitClosed(t, done)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestStart_RealTransportsWithReply(t *testing.T) {
	port := freePort(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	s := newTestShell(t, pr,
		WithListen("127.0.0.1", port),
		WithReply(transport.EchoReply),
		WithInfo(Info{Title: "PPTC", Version: "0.0.18"}),
	)

	done := startAsync(s, "--start")
	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 3*time.Second, 20*time.Millisecond)
	defer conn.Close()

	_, err := conn.Write([]byte("-of json -v\r\n"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	reader := bufio.NewReader(conn)
	var reply strings.Builder
	for !strings.HasSuffix(reply.String(), "}\n") {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		reply.WriteString(line)
	}
	assert.Equal(t, "PPTC", gjson.Get(reply.String(), "Title").String())
	assert.Equal(t, "0.0.18", gjson.Get(reply.String(), "Version").String())

	console := s.out.String()
	assert.Contains(t, console, "<TCP> remote client 127.0.0.1:")
	assert.Contains(t, console, "<TCP> receive remote client 127.0.0.1:")
	assert.Contains(t, console, "Input>-of json -v\n")

	_, err = conn.Write([]byte("--stop\n"))
	require.NoError(t, err)
	waitClosed(t, done)
	assert.Equal(t, []int{0}, s.exits.Codes())
	assert.Equal(t, domain.ModeIdle, s.Mode())
}

func TestNetworkHandler_SplitsLines(t *testing.T) {
	log := &callLog{}
	s := newTestShell(t, nil, WithCommands(hostCommands(log)...))
	enterContinuous(t, s.Shell)

	var mu sync.Mutex
	var replies []string
	reply := func(_ ports.Transport, id domain.ConnID, out []byte) {
		mu.Lock()
		defer mu.Unlock()
		replies = append(replies, id.String()+":"+string(out))
	}
	codec, err := transport.NewTextCodec("")
	require.NoError(t, err)
	h := NewNetworkHandler(s, codec, s.out, "Input", reply, nil)

	tr := newFakeTransport(domain.TransportUDP, true)
	h.OnData(context.Background(), tr, 9, []byte("-a -b\r\n\r\n-c\n-nope\n-v"))

	assert.Equal(t, []string{"a", "b", "c"}, log.Calls())
	out := s.out.String()
	assert.Contains(t, out, "Input>-a -b\n")
	assert.Contains(t, out, "Input>-c\n")
	assert.Contains(t, out, "Error:unknown command -nope\n")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"9:Error:unknown command -nope\n", "9:Title:Console Application\n"}, replies,
		"only lines that produce output are replied")
}

func TestNetworkHandler_RejectsOversizedLines(t *testing.T) {
	log := &callLog{}
	s := newTestShell(t, nil, WithCommands(hostCommands(log)...))
	enterContinuous(t, s.Shell)

	h := NewNetworkHandler(s, nil, s.out, "Input", nil, nil)
	h.MaxInputSize = 8
	h.OnData(context.Background(), newFakeTransport(domain.TransportTCP, true), 1, []byte("-a -a -a -a\n-b\n"))

	assert.Equal(t, []string{"b"}, log.Calls())
	assert.Contains(t, s.out.String(), "input exceeds maximum allowed size")
}

func TestStart_InstanceLockOutlivesGC(t *testing.T) {
	dir := t.TempDir()
	pair := newFakePair(true, true)
	s := newTestShell(t, nil, WithAllowInput(false), WithTransports(pair.factory),
		WithLocker(lockfile.New(dir), "Slides.Service"))

	done := startAsync(s, "--start")
	require.Eventually(t, func() bool { return s.Mode() == domain.ModeNetworkService }, 2*time.Second, 5*time.Millisecond)
	for i := 0; i < 5; i++ {
		runtime.GC()
	}

	_, err := lockfile.New(dir).Acquire(context.Background(), "Slides.Service")
	assert.ErrorIs(t, err, domain.ErrInstanceLocked)

	require.NoError(t, s.Stop())
	waitClosed(t, done)

	_, err = lockfile.New(dir).Acquire(context.Background(), "Slides.Service")
	assert.ErrorIs(t, err, domain.ErrInstanceLocked, "the lock is released only by process exit")
}

func TestShell_MaxInputSizeAppliesToConsole(t *testing.T) {
	s := newTestShell(t, strings.NewReader("-of json\n-v\n"), WithMaxInputSize(4))

	line, err := s.Console().ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-v", line)
	assert.Contains(t, s.out.String(), "input exceeds maximum allowed size")
}
