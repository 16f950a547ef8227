// Package store persists flat document collections. A Redis-backed collection is the
// primary store; an in-memory collection of the same shape takes over while Redis is
// unreachable.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnavailable = errors.New("store: backend unavailable")
	ErrNotFound    = errors.New("store: document not found")
	ErrDuplicate   = errors.New("store: duplicate key")
)

// Collection names
const (
	Applications = "applications"
	Contacts     = "contacts"
	Waitlist     = "waitlist"
)

// Backend names reported by collections
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Document is a record addressable by an opaque ID and ordered by a recency timestamp.
// SortTime must not change after the document is first inserted.
type Document interface {
	DocumentID() string
	SortTime() time.Time
}

// Collection is a flat set of documents keyed by ID
type Collection[T Document] interface {
	Name() string
	Backend() string

	Insert(ctx context.Context, doc T) error
	// InsertUnique inserts doc unless another document already holds key in the
	// named unique index, in which case ErrDuplicate is returned and nothing is written.
	InsertUnique(ctx context.Context, doc T, index, key string) error

	FindByID(ctx context.Context, id string) (T, error)
	FindByKey(ctx context.Context, index, key string) (T, error)

	// List returns every document, newest SortTime first
	List(ctx context.Context) ([]T, error)

	// Update applies mutate to the stored document and persists the result.
	// A mutate error aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, mutate func(*T) error) (T, error)

	Count(ctx context.Context) (int, error)
}
