package core

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by stores when a key does not exist or has expired.
var ErrMiss = errors.New("store: miss")

// KeyValueStore is the only shared mutable state. Implementations must be
// safe for concurrent use.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key. A non-positive ttl means no expiration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// GetDel atomically reads and removes key.
	GetDel(ctx context.Context, key string) (string, error)
	// Apply executes every op of b or none of them.
	Apply(ctx context.Context, b *Batch) error
	// ScanPrefix returns every live key starting with prefix and its value.
	ScanPrefix(ctx context.Context, prefix string) (map[string]string, error)
	Ping(ctx context.Context) error
	Close() error
}

type OpKind int

const (
	OpSet OpKind = iota
	OpDel
	// OpDelIfEqual deletes Key only while it still holds Value.
	OpDelIfEqual
)

type BatchOp struct {
	Kind  OpKind
	Key   string
	Value string
	TTL   time.Duration
}

type Batch struct {
	Ops []BatchOp
}

func NewBatch() *Batch { return &Batch{} }

func (b *Batch) Set(key, value string, ttl time.Duration) *Batch {
	b.Ops = append(b.Ops, BatchOp{Kind: OpSet, Key: key, Value: value, TTL: ttl})
	return b
}

func (b *Batch) Del(keys ...string) *Batch {
	for _, k := range keys {
		b.Ops = append(b.Ops, BatchOp{Kind: OpDel, Key: k})
	}
	return b
}

func (b *Batch) DelIfEqual(key, value string) *Batch {
	b.Ops = append(b.Ops, BatchOp{Kind: OpDelIfEqual, Key: key, Value: value})
	return b
}

// Guarded lists the keys whose current value decides an OpDelIfEqual.
func (b *Batch) Guarded() []string {
	var keys []string
	for _, op := range b.Ops {
		if op.Kind == OpDelIfEqual {
			keys = append(keys, op.Key)
		}
	}
	return keys
}

func (b *Batch) Len() int { return len(b.Ops) }
