package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ubilab-escape/operator/internal/platform/logger"
)

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects to addr and returns a Bus that publishes/
// subscribes snapshot payloads on channel (defaulted to "dashboard").
// Grounded directly on the teacher's internal/realtime/bus/redis_bus.go,
// with the Redis address passed in by the caller (from --redis-addr)
// instead of read from the environment, since this rewrite's CLI layer
// already owns flag/env precedence.
func NewRedisBus(log *logger.Logger, addr, channel string) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "dashboard"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("component", "DashboardRedisBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, snapshot []byte) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis dashboard bus not initialized")
	}
	return b.rdb.Publish(ctx, b.channel, snapshot).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onSnapshot func([]byte)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis dashboard bus not initialized")
	}
	if onSnapshot == nil {
		return fmt.Errorf("onSnapshot callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				onSnapshot([]byte(m.Payload))
			}
		}
	}()

	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// noopBus is used when --redis-addr is unset: the dashboard still
// serves /snapshot and /stream from its own hub, it just can't fan out
// across multiple processes.
type noopBus struct{}

// NewNoopBus returns a Bus that does nothing, for single-instance runs.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(context.Context, []byte) error                 { return nil }
func (noopBus) StartForwarder(context.Context, func([]byte)) error    { return nil }
func (noopBus) Close() error                                          { return nil }
