package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTTL is the lease of an instance lock before it must be refreshed.
const DefaultTTL = 15 * time.Second

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// Locker implements ports.InstanceLocker using Redis.
// The lock is a lease: a holder keeps it alive by refreshing the TTL, so a
// crashed process releases its instance after at most one TTL.
type Locker struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Locker.
type Option func(*Locker)

// WithTTL sets the lease duration.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report refresh failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		prefix: prefix,
		ttl:    DefaultTTL,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// New connects to addr and returns a locker using the "conshell:" key prefix.
func New(addr string, opts ...Option) *Locker {
	client := backend.NewClient(&backend.Options{Addr: addr})
	return NewLocker(client, "conshell:", opts...)
}

// Key returns the Redis key backing the lock called name.
func (l *Locker) Key(name string) string {
	return l.prefix + "instance:" + name
}

// Acquire tries SET NX PX once. It does not wait for the current holder.
func (l *Locker) Acquire(ctx context.Context, name string) (ports.UnlockFunc, error) {
	key := l.Key(name)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInstanceLocked, name)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			<-done
			err = l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
		})
		return err
	}, nil
}

func (l *Locker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			res, err := l.client.Eval(ctx, refreshScript, []string{key}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.logger.Warn("instance lock refresh failed", "key", key, "err", err)
				continue
			}
			if res == 0 {
				l.logger.Error("instance lock lost", "key", key)
				return
			}
		}
	}
}
