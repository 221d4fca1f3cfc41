package storage

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

// Collection is an ordered list of entities persisted as a JSON array under one key.
// Entities are identified by the id function; uniqueness is up to the caller.
type Collection[T any] struct {
	value *Value[[]T]
	id    func(T) int64
}

// NewCollection loads the list stored under key, or starts empty.
func NewCollection[T any](ctx context.Context, kv KV, key string, id func(T) int64, logger *zap.Logger) *Collection[T] {
	return &Collection[T]{
		value: NewValue(ctx, kv, key, func() []T { return []T{} }, logger),
		id:    id,
	}
}

// Key returns the storage key.
func (c *Collection[T]) Key() string {
	return c.value.Key()
}

// Items returns a copy of the list in insertion order.
func (c *Collection[T]) Items() []T {
	var out []T
	c.value.View(func(items []T) {
		out = slices.Clone(items)
	})
	if out == nil {
		out = []T{}
	}
	return out
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int {
	var n int
	c.value.View(func(items []T) { n = len(items) })
	return n
}

// Find returns the entity with the given id.
func (c *Collection[T]) Find(id int64) (T, bool) {
	var (
		found T
		ok    bool
	)
	c.value.View(func(items []T) {
		if i := c.index(items, id); i >= 0 {
			found, ok = items[i], true
		}
	})
	return found, ok
}

// Contains reports whether an entity with the given id exists.
func (c *Collection[T]) Contains(id int64) bool {
	_, ok := c.Find(id)
	return ok
}

// Mutate applies fn to the list and writes the result through when fn reports a change.
// fn owns the slice it receives for the duration of the call.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, bool)) {
	c.value.Mutate(ctx, func(items []T) ([]T, bool) {
		next, changed := fn(items)
		if next == nil {
			next = []T{}
		}
		return next, changed
	})
}

// Append adds entity unless one with the same id exists. It reports whether it was added.
func (c *Collection[T]) Append(ctx context.Context, entity T) bool {
	added := false
	c.Mutate(ctx, func(items []T) ([]T, bool) {
		if c.index(items, c.id(entity)) >= 0 {
			return items, false
		}
		added = true
		return append(items, entity), true
	})
	return added
}

// Remove deletes the entity with the given id. Removing an absent id is a no-op.
func (c *Collection[T]) Remove(ctx context.Context, id int64) bool {
	removed := false
	c.Mutate(ctx, func(items []T) ([]T, bool) {
		i := c.index(items, id)
		if i < 0 {
			return items, false
		}
		removed = true
		return slices.Delete(items, i, i+1), true
	})
	return removed
}

// Update applies fn to the entity with the given id. It reports whether the entity exists.
func (c *Collection[T]) Update(ctx context.Context, id int64, fn func(*T)) bool {
	found := false
	c.Mutate(ctx, func(items []T) ([]T, bool) {
		i := c.index(items, id)
		if i < 0 {
			return items, false
		}
		found = true
		fn(&items[i])
		return items, true
	})
	return found
}

// Clear empties the list unconditionally.
func (c *Collection[T]) Clear(ctx context.Context) {
	c.Mutate(ctx, func([]T) ([]T, bool) {
		return []T{}, true
	})
}

func (c *Collection[T]) index(items []T, id int64) int {
	return slices.IndexFunc(items, func(it T) bool { return c.id(it) == id })
}
