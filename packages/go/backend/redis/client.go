package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// NewClient builds a go-redis client from either a host:port address or a
// redis:// / rediss:// URL.
func NewClient(addr string) (*goredis.Client, error) {
	opts, err := resolveOptions(addr)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

// Ping checks connectivity, bounded by a default timeout when ctx has no
// deadline.
func Ping(ctx context.Context, client *goredis.Client) error {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func resolveOptions(addr string) (*goredis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &goredis.Options{
		Addr:         addr,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	}, nil
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, defaultTimeout)
}
