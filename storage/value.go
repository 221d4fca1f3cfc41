package storage

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Value is a single JSON document mirrored to a KV key.
//
// It is read once when created. A missing key, a read error or an unparsable
// document all start from init(). Every change made through Mutate is written
// back in full. Write failures are logged and never reach the caller, so the
// stored copy may lag memory by the last mutation if the backend is down.
type Value[T any] struct {
	mu     sync.Mutex
	kv     KV
	key    string
	v      T
	logger *zap.Logger
}

// NewValue loads key from kv, falling back to init() when nothing usable is stored.
func NewValue[T any](ctx context.Context, kv KV, key string, init func() T, logger *zap.Logger) *Value[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Value[T]{kv: kv, key: key, logger: logger}
	v.v = v.load(ctx, init)
	return v
}

func (v *Value[T]) load(ctx context.Context, init func() T) T {
	raw, ok, err := v.kv.Get(ctx, v.key)
	if err != nil {
		v.logger.Warn("failed to read stored state, starting empty", zap.String("key", v.key), zap.Error(err))
		return init()
	}
	if !ok || raw == "" {
		return init()
	}
	loaded := init()
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		v.logger.Warn("discarding unreadable stored state", zap.String("key", v.key), zap.Error(err))
		return init()
	}
	return loaded
}

func (v *Value[T]) persist(ctx context.Context) {
	data, err := json.Marshal(v.v)
	if err != nil {
		v.logger.Error("failed to encode state", zap.String("key", v.key), zap.Error(err))
		return
	}
	if err := v.kv.Set(ctx, v.key, string(data)); err != nil {
		v.logger.Error("failed to persist state", zap.String("key", v.key), zap.Error(err))
	}
}

// Key returns the storage key.
func (v *Value[T]) Key() string {
	return v.key
}

// View runs fn with the current value under the lock. fn must not keep or
// modify references into the value.
func (v *Value[T]) View(fn func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.v)
}

// Mutate replaces the value with fn's result. When fn reports no change the
// value is left as is and nothing is written.
func (v *Value[T]) Mutate(ctx context.Context, fn func(T) (T, bool)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, changed := fn(v.v)
	if !changed {
		return
	}
	v.v = next
	v.persist(ctx)
}
