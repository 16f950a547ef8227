package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipr-api/internal/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Database.URL = "redis://" + mr.Addr()
	cfg.Database.ConnectTimeout = time.Second
	cfg.Database.HealthCheckInterval = time.Hour

	client := NewClient(cfg)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestClientConnectIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	first := client.Connect(ctx)
	require.NotNil(t, first)
	assert.Same(t, first, client.Connect(ctx))
	assert.True(t, client.Healthy())
	assert.Equal(t, BackendRedis, client.Backend(ctx))
}

func TestClientConnectUnreachableReturnsNil(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "redis://127.0.0.1:1"
	cfg.Database.ConnectTimeout = 200 * time.Millisecond
	cfg.Database.HealthCheckInterval = time.Hour

	client := NewClient(cfg)
	defer client.Close()

	var changes []bool
	client.OnAvailabilityChange(func(ok bool) { changes = append(changes, ok) })

	start := time.Now()
	assert.Nil(t, client.Connect(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Error(t, client.LastError())

	// within the retry interval no new attempt is made
	assert.Nil(t, client.Connect(context.Background()))
	assert.Equal(t, BackendMemory, client.Backend(context.Background()))
	assert.Empty(t, changes, "never became available")
}

func TestClientProbeNoticesOutage(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	var changes []bool
	client.OnAvailabilityChange(func(ok bool) { changes = append(changes, ok) })

	require.NotNil(t, client.Connect(ctx))
	client.probe(ctx)
	assert.True(t, client.Healthy())

	mr.Close()
	client.probe(ctx)
	assert.False(t, client.Healthy())
	assert.Equal(t, []bool{true, false}, changes)
}

func TestClientDisabled(t *testing.T) {
	client, _ := newTestClient(t)
	client.cfg.Database.Disabled = true
	assert.Nil(t, client.Connect(context.Background()))
	assert.False(t, client.Available(context.Background()))
}

func TestRedisCollectionRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	c := NewRedisCollection[note](client, "notes")

	require.NoError(t, c.Insert(ctx, newNote("a", time.Minute)))
	require.NoError(t, c.Insert(ctx, newNote("c", 3*time.Minute)))
	require.NoError(t, c.Insert(ctx, newNote("b", 2*time.Minute)))

	assert.True(t, mr.Exists("swipr:notes:docs"))
	assert.True(t, mr.Exists("swipr:notes:timeline"))

	docs, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(docs))

	got, err := c.FindByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "body b", got.Body)
	assert.True(t, got.CreatedAt.Equal(base.Add(2*time.Minute)))

	_, err = c.FindByID(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	err = c.Insert(ctx, newNote("a", 0))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRedisCollectionUpdate(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewRedisCollection[note](client, "notes")
	require.NoError(t, c.Insert(ctx, newNote("a", 0)))

	updated, err := c.Update(ctx, "a", func(n *note) error {
		n.Status = "read"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "read", updated.Status)

	got, err := c.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "read", got.Status)

	boom := errors.New("rejected")
	_, err = c.Update(ctx, "a", func(*note) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, client.Healthy(), "a rejected mutation does not mark the store down")

	_, err = c.Update(ctx, "missing", func(*note) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCollectionInsertUnique(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	c := NewRedisCollection[note](client, "notes")

	require.NoError(t, c.InsertUnique(ctx, newNote("a", 0), "email", "x@y.io"))
	err := c.InsertUnique(ctx, newNote("b", time.Second), "email", "x@y.io")
	assert.ErrorIs(t, err, ErrDuplicate)

	n, _ := c.Count(ctx)
	assert.Equal(t, 1, n)

	got, err := c.FindByKey(ctx, "email", "x@y.io")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestRedisCollectionRepair(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	c := NewRedisCollection[note](client, "notes")

	require.NoError(t, c.InsertUnique(ctx, newNote("a", 0), "body", "body-a"))
	require.NoError(t, c.Insert(ctx, newNote("b", time.Second)))

	mr.Del("swipr:notes:timeline")
	mr.Del("swipr:notes:idx:body")

	byBody := func(n note) string { return "body-" + n.ID }
	written, err := c.Repair(ctx, "body", byBody)
	require.NoError(t, err)
	assert.Equal(t, 4, written)

	docs, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(docs))

	got, err := c.FindByKey(ctx, "body", "body-b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	written, err = c.Repair(ctx, "body", byBody)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestRedisCollectionUnavailable(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	c := NewRedisCollection[note](client, "notes")
	require.NotNil(t, client.Connect(ctx))

	mr.Close()

	err := c.Insert(ctx, newNote("a", 0))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, client.Healthy())

	_, err = c.List(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
