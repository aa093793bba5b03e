package db

import (
	"context"
	"time"
)

// Store is the key-value database facade the taxonomy repository runs on.
// Consumers depend on the narrow sub-interfaces.
type Store interface {
	Pinger
	HashStore
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// CounterStore provides integer counters.
type CounterStore interface {
	GetInt(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}
