package store

import (
	"context"
	"errors"
	"sort"

	"swipr-api/internal/logging"
)

// HealthChecker reports whether the primary store can take requests
type HealthChecker interface {
	Available(ctx context.Context) bool
	Healthy() bool
}

// FallbackCollection routes each call to the primary collection while it is healthy and to
// an in-memory collection otherwise. Records written to memory during an outage stay
// readable after the primary recovers.
type FallbackCollection[T Document] struct {
	primary Collection[T]
	memory  *MemoryCollection[T]
	health  HealthChecker
	logger  logging.Logger

	onFallback func(collection, op string)
}

// FallbackOption configures a FallbackCollection
type FallbackOption[T Document] func(*FallbackCollection[T])

// WithFallbackHook registers a callback invoked whenever a call is served from memory
// because the primary failed
func WithFallbackHook[T Document](fn func(collection, op string)) FallbackOption[T] {
	return func(f *FallbackCollection[T]) {
		f.onFallback = fn
	}
}

// NewFallbackCollection pairs a primary collection with an in-memory one of the same name
func NewFallbackCollection[T Document](primary Collection[T], health HealthChecker, opts ...FallbackOption[T]) *FallbackCollection[T] {
	f := &FallbackCollection[T]{
		primary: primary,
		memory:  NewMemoryCollection[T](primary.Name()),
		health:  health,
		logger:  logging.GetGlobalLogger().WithFields(map[string]interface{}{"component": "store", "collection": primary.Name()}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewCollection builds the standard Redis-with-memory-fallback collection
func NewCollection[T Document](client *Client, name string, opts ...FallbackOption[T]) *FallbackCollection[T] {
	return NewFallbackCollection[T](NewRedisCollection[T](client, name), client, opts...)
}

func (f *FallbackCollection[T]) Name() string { return f.primary.Name() }

// Backend reports which store served the most recent call
func (f *FallbackCollection[T]) Backend() string {
	if f.health.Healthy() {
		return f.primary.Backend()
	}
	return f.memory.Backend()
}

// Memory exposes the in-memory side, mainly for inspection in tests and health output
func (f *FallbackCollection[T]) Memory() *MemoryCollection[T] { return f.memory }

func (f *FallbackCollection[T]) usePrimary(ctx context.Context) bool {
	return f.health.Available(ctx)
}

func (f *FallbackCollection[T]) fellBack(op string, err error) {
	f.logger.Warn("Primary store failed, using in-memory store", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	if f.onFallback != nil {
		f.onFallback(f.Name(), op)
	}
}

func (f *FallbackCollection[T]) Insert(ctx context.Context, doc T) error {
	if f.usePrimary(ctx) {
		err := f.primary.Insert(ctx, doc)
		if err == nil || !errors.Is(err, ErrUnavailable) {
			return err
		}
		f.fellBack("insert", err)
	}
	return f.memory.Insert(ctx, doc)
}

func (f *FallbackCollection[T]) InsertUnique(ctx context.Context, doc T, index, key string) error {
	if f.usePrimary(ctx) {
		// a key claimed during an outage still counts
		if _, err := f.memory.FindByKey(ctx, index, key); err == nil {
			return ErrDuplicate
		}
		err := f.primary.InsertUnique(ctx, doc, index, key)
		if err == nil || !errors.Is(err, ErrUnavailable) {
			return err
		}
		f.fellBack("insert", err)
	}
	return f.memory.InsertUnique(ctx, doc, index, key)
}

func (f *FallbackCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	if f.usePrimary(ctx) {
		doc, err := f.primary.FindByID(ctx, id)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnavailable) {
			return doc, err
		}
		if errors.Is(err, ErrUnavailable) {
			f.fellBack("find", err)
		}
	}
	return f.memory.FindByID(ctx, id)
}

func (f *FallbackCollection[T]) FindByKey(ctx context.Context, index, key string) (T, error) {
	if f.usePrimary(ctx) {
		doc, err := f.primary.FindByKey(ctx, index, key)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnavailable) {
			return doc, err
		}
		if errors.Is(err, ErrUnavailable) {
			f.fellBack("find", err)
		}
	}
	return f.memory.FindByKey(ctx, index, key)
}

// List merges both stores, newest first
func (f *FallbackCollection[T]) List(ctx context.Context) ([]T, error) {
	local, _ := f.memory.List(ctx)
	if !f.usePrimary(ctx) {
		return local, nil
	}

	remote, err := f.primary.List(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		f.fellBack("list", err)
		return local, nil
	}
	if len(local) == 0 {
		return remote, nil
	}

	seen := make(map[string]struct{}, len(remote))
	merged := make([]T, 0, len(remote)+len(local))
	for _, doc := range remote {
		seen[doc.DocumentID()] = struct{}{}
		merged = append(merged, doc)
	}
	for _, doc := range local {
		if _, dup := seen[doc.DocumentID()]; !dup {
			merged = append(merged, doc)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SortTime().After(merged[j].SortTime())
	})
	return merged, nil
}

func (f *FallbackCollection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (T, error) {
	if f.usePrimary(ctx) {
		doc, err := f.primary.Update(ctx, id, mutate)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnavailable) {
			return doc, err
		}
		if errors.Is(err, ErrUnavailable) {
			f.fellBack("update", err)
		}
	}
	return f.memory.Update(ctx, id, mutate)
}

func (f *FallbackCollection[T]) Count(ctx context.Context) (int, error) {
	local, _ := f.memory.Count(ctx)
	if !f.usePrimary(ctx) {
		return local, nil
	}

	remote, err := f.primary.Count(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			return 0, err
		}
		f.fellBack("count", err)
		return local, nil
	}
	return remote + local, nil
}
