package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// RedisCollection stores JSON documents in Redis.
//
//	<prefix>:<name>:docs          hash     id -> JSON document
//	<prefix>:<name>:timeline      zset     id scored by SortTime (unix micros)
//	<prefix>:<name>:idx:<index>   hash     unique key -> id
type RedisCollection[T Document] struct {
	name   string
	client *Client
}

// NewRedisCollection binds a named collection to the adapter
func NewRedisCollection[T Document](client *Client, name string) *RedisCollection[T] {
	return &RedisCollection[T]{name: name, client: client}
}

func (r *RedisCollection[T]) Name() string    { return r.name }
func (r *RedisCollection[T]) Backend() string { return BackendRedis }

func (r *RedisCollection[T]) docsKey() string {
	return r.client.KeyPrefix() + ":" + r.name + ":docs"
}

func (r *RedisCollection[T]) timelineKey() string {
	return r.client.KeyPrefix() + ":" + r.name + ":timeline"
}

func (r *RedisCollection[T]) indexKey(index string) string {
	return r.client.KeyPrefix() + ":" + r.name + ":idx:" + index
}

// handle returns the live connection and a context bounded by the operation timeout
func (r *RedisCollection[T]) handle(ctx context.Context) (*redis.Client, context.Context, context.CancelFunc, error) {
	rdb := r.client.Connect(ctx)
	if rdb == nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", r.name, ErrUnavailable)
	}
	opCtx, cancel := context.WithTimeout(ctx, r.client.OperationTimeout())
	return rdb, opCtx, cancel, nil
}

// fail records a transport failure and wraps it as unavailability
func (r *RedisCollection[T]) fail(op string, err error) error {
	r.client.ReportFailure(err)
	return fmt.Errorf("%s %s: %w: %w", r.name, op, ErrUnavailable, err)
}

func (r *RedisCollection[T]) Insert(ctx context.Context, doc T) error {
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	return r.insert(opCtx, rdb, doc)
}

func (r *RedisCollection[T]) insert(ctx context.Context, rdb *redis.Client, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: encode document: %w", r.name, err)
	}

	id := doc.DocumentID()
	created, err := rdb.HSetNX(ctx, r.docsKey(), id, data).Result()
	if err != nil {
		return r.fail("insert", err)
	}
	if !created {
		return fmt.Errorf("%s id %q: %w", r.name, id, ErrDuplicate)
	}

	score := float64(doc.SortTime().UnixMicro())
	if err := rdb.ZAdd(ctx, r.timelineKey(), redis.Z{Score: score, Member: id}).Err(); err != nil {
		rdb.HDel(context.WithoutCancel(ctx), r.docsKey(), id)
		return r.fail("insert", err)
	}
	return nil
}

func (r *RedisCollection[T]) InsertUnique(ctx context.Context, doc T, index, key string) error {
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	claimed, err := rdb.HSetNX(opCtx, r.indexKey(index), key, doc.DocumentID()).Result()
	if err != nil {
		return r.fail("insert", err)
	}
	if !claimed {
		return fmt.Errorf("%s %s=%q: %w", r.name, index, key, ErrDuplicate)
	}

	if err := r.insert(opCtx, rdb, doc); err != nil {
		// release the claim so a later attempt can succeed
		rdb.HDel(context.WithoutCancel(opCtx), r.indexKey(index), key)
		return err
	}
	return nil
}

func (r *RedisCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return zero, err
	}
	defer cancel()

	return r.get(opCtx, rdb, id)
}

func (r *RedisCollection[T]) get(ctx context.Context, rdb redis.Cmdable, id string) (T, error) {
	var doc T
	data, err := rdb.HGet(ctx, r.docsKey(), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, r.fail("get", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, &localError{fmt.Errorf("%s id %q: decode document: %w", r.name, id, err)}
	}
	return doc, nil
}

func (r *RedisCollection[T]) FindByKey(ctx context.Context, index, key string) (T, error) {
	var zero T
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return zero, err
	}
	defer cancel()

	id, err := rdb.HGet(opCtx, r.indexKey(index), key).Result()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, r.fail("lookup", err)
	}
	return r.get(opCtx, rdb, id)
}

func (r *RedisCollection[T]) List(ctx context.Context) ([]T, error) {
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ids, err := rdb.ZRevRange(opCtx, r.timelineKey(), 0, -1).Result()
	if err != nil {
		return nil, r.fail("list", err)
	}
	if len(ids) == 0 {
		return []T{}, nil
	}

	values, err := rdb.HMGet(opCtx, r.docsKey(), ids...).Result()
	if err != nil {
		return nil, r.fail("list", err)
	}

	docs := make([]T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// timeline entry without a document; skip it
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("%s id %q: decode document: %w", r.name, ids[i], err)
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].SortTime().After(docs[j].SortTime())
	})
	return docs, nil
}

func (r *RedisCollection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (T, error) {
	var zero T
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return zero, err
	}
	defer cancel()

	var updated T
	txf := func(tx *redis.Tx) error {
		doc, err := r.get(opCtx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(&doc); err != nil {
			return &localError{err}
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return &localError{fmt.Errorf("%s: encode document: %w", r.name, err)}
		}
		_, err = tx.TxPipelined(opCtx, func(pipe redis.Pipeliner) error {
			pipe.HSet(opCtx, r.docsKey(), id, data)
			return nil
		})
		if err == nil {
			updated = doc
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err = rdb.Watch(opCtx, txf, r.docsKey())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var local *localError
		switch {
		case err == nil:
			return updated, nil
		case errors.As(err, &local):
			return zero, local.err
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable):
			return zero, err
		default:
			return zero, r.fail("update", err)
		}
	}
	return zero, fmt.Errorf("%s id %q: update contention: %w", r.name, id, redis.TxFailedErr)
}

func (r *RedisCollection[T]) Count(ctx context.Context) (int, error) {
	rdb, opCtx, cancel, err := r.handle(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()

	n, err := rdb.HLen(opCtx, r.docsKey()).Result()
	if err != nil {
		return 0, r.fail("count", err)
	}
	return int(n), nil
}

// Repair walks every stored document, restores missing timeline entries and claims
// missing unique index entries computed by key. It returns how many entries it wrote.
func (r *RedisCollection[T]) Repair(ctx context.Context, index string, key func(T) string) (int, error) {
	rdb := r.client.Connect(ctx)
	if rdb == nil {
		return 0, fmt.Errorf("%s: %w", r.name, ErrUnavailable)
	}

	raw, err := rdb.HGetAll(ctx, r.docsKey()).Result()
	if err != nil {
		return 0, r.fail("repair", err)
	}

	written := 0
	for id, data := range raw {
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return written, fmt.Errorf("%s id %q: decode document: %w", r.name, id, err)
		}

		added, err := rdb.ZAddNX(ctx, r.timelineKey(), redis.Z{
			Score:  float64(doc.SortTime().UnixMicro()),
			Member: id,
		}).Result()
		if err != nil {
			return written, r.fail("repair", err)
		}
		written += int(added)

		if index == "" || key == nil {
			continue
		}
		claimed, err := rdb.HSetNX(ctx, r.indexKey(index), key(doc), id).Result()
		if err != nil {
			return written, r.fail("repair", err)
		}
		if claimed {
			written++
		}
	}
	return written, nil
}

// localError carries failures that did not come from Redis itself
type localError struct{ err error }

func (e *localError) Error() string { return e.err.Error() }
func (e *localError) Unwrap() error { return e.err }
