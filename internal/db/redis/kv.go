package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/annotator/internal/db"
)

// GetInt reads an integer counter. A missing key reads as zero.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Get().Key(s.key(key)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, &db.Error{Op: db.OpGet, Err: err}
	}
	return n, nil
}

// IncrBy atomically increments a counter and returns the new value.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	cmd := s.b().Incrby().Key(s.key(key)).Increment(val).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return n, nil
}
