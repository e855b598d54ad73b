package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/conshell/internal/config"
	"github.com/aretw0/conshell/internal/logging"
	"github.com/aretw0/conshell/pkg/adapters/lockfile"
	"github.com/aretw0/conshell/pkg/adapters/memory"
	"github.com/aretw0/conshell/pkg/adapters/redis"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) exit(code int) { e.codes = append(e.codes, code) }

func testOptions(out *bytes.Buffer, exits *exitRecorder, environ map[string]string) Options {
	if environ == nil {
		environ = map[string]string{}
	}
	environ["CONSHELL_LOCK_BACKEND"] = config.LockNone
	return Options{
		In:      bytes.NewReader(nil),
		Out:     out,
		Exit:    exits.exit,
		Environ: environ,
		Commands: []registry.Entry{
			registry.Command("hello", "(str name)", "greet someone", 1, func(_ context.Context, inv *registry.Invocation) error {
				inv.Printf("hello %s\n", inv.Arg(0))
				return nil
			}),
		},
	}
}

func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	exits := &exitRecorder{}
	opts := testOptions(&out, exits, map[string]string{"CONSHELL_TITLE": "Slides"})

	require.NoError(t, Execute(context.Background(), []string{"-v"}, opts))
	assert.Contains(t, out.String(), "Slides")
	assert.Empty(t, exits.codes)
}

func TestExecute_HostCommand(t *testing.T) {
	var out bytes.Buffer
	exits := &exitRecorder{}

	require.NoError(t, Execute(context.Background(), []string{"-hello", "world"}, testOptions(&out, exits, nil)))
	assert.Equal(t, "hello world\n", out.String())
}

func TestExecute_ConfigFileAndMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conshell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("marker: /\n"), 0o644))

	var out bytes.Buffer
	exits := &exitRecorder{}
	args := []string{"--config=" + path, "/hello", "there"}

	require.NoError(t, Execute(context.Background(), args, testOptions(&out, exits, nil)))
	assert.Equal(t, "hello there\n", out.String())
}

func TestExecute_UnknownCommandExitsZero(t *testing.T) {
	var out bytes.Buffer
	exits := &exitRecorder{}

	err := Execute(context.Background(), []string{"-nope"}, testOptions(&out, exits, nil))
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
	assert.Equal(t, []int{0}, exits.codes)
}

func TestExecute_InvalidConfig(t *testing.T) {
	var out bytes.Buffer
	exits := &exitRecorder{}
	opts := testOptions(&out, exits, map[string]string{"CONSHELL_PORT": "0"})

	err := Execute(context.Background(), []string{"-v"}, opts)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, out.String(), "nothing runs before the configuration is valid")
}

func TestNewShell_InvalidEncoding(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding = "klingon"
	cfg.Lock.Backend = config.LockNone

	_, err := NewShell(cfg, logging.NewNop(), Options{Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewShell_StatusCompanion(t *testing.T) {
	cfg := config.Default()
	cfg.Lock.Backend = config.LockNone
	cfg.StatusAddr = "127.0.0.1:0"

	sh, err := NewShell(cfg, logging.NewNop(), Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeIdle, sh.Mode())
}

func TestNewLocker(t *testing.T) {
	l, err := newLocker(config.LockConfig{Backend: config.LockFile, Dir: t.TempDir()}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &lockfile.Locker{}, l)

	l, err = newLocker(config.LockConfig{Backend: config.LockNone}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Locker{}, l)

	l, err = newLocker(config.LockConfig{Backend: config.LockRedis, RedisAddr: "localhost:6379"}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &redis.Locker{}, l)

	_, err = newLocker(config.LockConfig{Backend: "zookeeper"}, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrValidation)
}
