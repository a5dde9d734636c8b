package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/carelink/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxWatchRetries = 8

var ErrConflict = errors.New("kv: batch kept conflicting with concurrent writers")

// Store implements core.KeyValueStore on a go-redis client.
type Store struct {
	client *redis.Client
}

var _ core.KeyValueStore = (*Store)(nil)

func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kv: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("kv: ping: %w", err)
	}
	return c, nil
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	res, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrMiss
	}
	return res, err
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *Store) GetDel(ctx context.Context, key string) (string, error) {
	res, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrMiss
	}
	return res, err
}

// Apply runs the batch in one MULTI/EXEC. Conditional deletes WATCH their
// keys and retry when a concurrent writer touches them first.
func (s *Store) Apply(ctx context.Context, b *core.Batch) error {
	if b == nil || b.Len() == 0 {
		return nil
	}
	guarded := b.Guarded()
	if len(guarded) == 0 {
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			queue(ctx, p, b.Ops, nil)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current := make(map[string]string, len(guarded))
			for _, k := range guarded {
				v, err := tx.Get(ctx, k).Result()
				if errors.Is(err, redis.Nil) {
					continue
				}
				if err != nil {
					return err
				}
				current[k] = v
			}
			_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				queue(ctx, p, b.Ops, current)
				return nil
			})
			return err
		}, guarded...)
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug().Str("module", "kv.redis").Int("attempt", attempt).Msg("watched key changed, retrying batch")
			continue
		}
		return err
	}
	return ErrConflict
}

func queue(ctx context.Context, p redis.Pipeliner, ops []core.BatchOp, current map[string]string) {
	for _, op := range ops {
		switch op.Kind {
		case core.OpSet:
			ttl := op.TTL
			if ttl < 0 {
				ttl = 0
			}
			p.Set(ctx, op.Key, op.Value, ttl)
		case core.OpDel:
			p.Del(ctx, op.Key)
		case core.OpDelIfEqual:
			if v, ok := current[op.Key]; ok && v == op.Value {
				p.Del(ctx, op.Key)
			}
		}
	}
}

func (s *Store) ScanPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		// expired between SCAN and MGET
		str, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = str
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
