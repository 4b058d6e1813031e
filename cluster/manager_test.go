package cluster

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(mr *miniredis.Miniredis, buckets map[string]int) Options {
	return Options{
		ConnectionString: "redis://" + mr.Addr(),
		Buckets:          buckets,
		DialTimeout:      200 * time.Millisecond,
		MaxRetries:       -1,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m
}

func TestConfigurationNotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.ConnectKey(context.Background(), "missing")
	var nf *ConfigurationNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Key)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestAddConfigurationValidation(t *testing.T) {
	m := newTestManager(t)

	assert.ErrorIs(t, m.AddConfiguration("", Options{ConnectionString: "redis://h:1"}), ErrInvalidOptions)
	assert.ErrorIs(t, m.AddConfiguration("k", Options{}), ErrInvalidOptions)
	assert.ErrorIs(t, m.AddConfiguration("k", Options{ConnectionString: "h:1", Buckets: map[string]int{"b": -1}}), ErrInvalidOptions)
	assert.ErrorIs(t, m.AddClient("k", nil), ErrInvalidOptions)

	require.NoError(t, m.AddConfiguration("k", Options{ConnectionString: "first:1"}))
	require.NoError(t, m.AddConfiguration("k", Options{ConnectionString: "second:1"}))
	got, err := m.Configuration("k")
	require.NoError(t, err)
	assert.Equal(t, "first:1", got.ConnectionString, "first registration wins")
}

func TestConnectSharesOneConnectionPerConnectionString(t *testing.T) {
	mr1 := miniredis.RunT(t)
	mr2 := miniredis.RunT(t)
	m := newTestManager(t)
	ctx := context.Background()

	a, err := m.Connect(ctx, testOptions(mr1, nil))
	require.NoError(t, err)
	b, err := m.Connect(ctx, testOptions(mr1, map[string]int{"default": 0}))
	require.NoError(t, err)
	c, err := m.Connect(ctx, testOptions(mr2, nil))
	require.NoError(t, err)

	assert.Same(t, a.Client(), b.Client())
	assert.NotSame(t, a.Client(), c.Client())
	assert.Equal(t, "redis://"+mr1.Addr(), a.ID())
}

func TestConnectConcurrentFirstUse(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newTestManager(t)
	require.NoError(t, m.AddConfiguration("cache1", testOptions(mr, nil)))

	const n = 32
	var (
		wg    sync.WaitGroup
		conns [n]*Connection
		errs  [n]error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			conns[i], errs[i] = m.ConnectKey(context.Background(), "cache1")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, conns[0].Client(), conns[i].Client())
	}
	m.mu.RLock()
	assert.Len(t, m.links, 1)
	m.mu.RUnlock()
}

func TestConnectFailureIsReportedAndNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := testOptions(mr, nil)
	mr.Close()

	m := newTestManager(t)
	_, err := m.Connect(context.Background(), opts)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "connect", ce.Op)
	assert.Equal(t, mr.Addr(), ce.Target)

	m.mu.RLock()
	assert.Empty(t, m.links)
	m.mu.RUnlock()

	require.NoError(t, mr.Restart())
	c, err := m.Connect(context.Background(), opts)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestConnectRejectsBadConnectionString(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Connect(context.Background(), Options{ConnectionString: "redis://h:1/abc"})
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestBucketResolution(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newTestManager(t)
	ctx := context.Background()

	conn, err := m.Connect(ctx, testOptions(mr, map[string]int{"default": 0, "users": 1}))
	require.NoError(t, err)

	users, err := conn.Bucket(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "users", users.Name())
	assert.Equal(t, 1, users.DB())

	def, err := conn.Bucket(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultBucket, def.Name())
	assert.Equal(t, 0, def.DB())

	_, err = conn.Bucket(ctx, "orders")
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "bucket", ce.Op)
	assert.Equal(t, "orders", ce.Target)
	assert.ErrorIs(t, err, ErrBucketNotFound)

	// per-database clients are reused
	again, err := conn.Bucket(ctx, "users")
	require.NoError(t, err)
	assert.Same(t, users.rdb, again.rdb)
}

func TestBucketUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newTestManager(t)
	ctx := context.Background()

	conn, err := m.Connect(ctx, testOptions(mr, map[string]int{"users": 1}))
	require.NoError(t, err)
	mr.Close()

	_, err = conn.Bucket(ctx, "users")
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "bucket", ce.Op)
}

func TestBucketOperations(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newTestManager(t)
	ctx := context.Background()

	conn, err := m.Connect(ctx, testOptions(mr, map[string]int{"users": 1}))
	require.NoError(t, err)
	b, err := conn.Bucket(ctx, "users")
	require.NoError(t, err)

	created, err := b.Insert(ctx, "k", []byte("v1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = b.Insert(ctx, "k", []byte("v2"), 0)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := mr.DB(1).Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, time.Minute, mr.DB(1).TTL("k"))

	require.NoError(t, b.Upsert(ctx, "k", []byte("v3"), 0))
	assert.Zero(t, mr.DB(1).TTL("k"), "plain upsert drops the old TTL")

	raw, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v3"), raw)

	_, ok, err = b.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := b.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, b.Remove(ctx, "k"))
	require.NoError(t, b.Remove(ctx, "k"))
	exists, err = b.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Upsert(ctx, "a", []byte("1"), 0))
	require.NoError(t, b.Upsert(ctx, "b", []byte("2"), 0))
	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestBucketManagerFlushIsPerBucket(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newTestManager(t)
	ctx := context.Background()

	conn, err := m.Connect(ctx, testOptions(mr, map[string]int{"default": 0, "users": 1}))
	require.NoError(t, err)
	require.NoError(t, mr.DB(0).Set("keep", "x"))
	require.NoError(t, mr.DB(1).Set("drop1", "x"))
	require.NoError(t, mr.DB(1).Set("drop2", "x"))

	admin := conn.BucketManager()
	n, err := admin.Count(ctx, "users")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, admin.Flush(ctx, "users"))
	n, err = admin.Count(ctx, "users")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, mr.DB(0).Exists("keep"))

	err = admin.Flush(ctx, "orders")
	assert.ErrorIs(t, err, ErrBucketNotFound)
}

func TestAddClientSharesExternalClient(t *testing.T) {
	mr := miniredis.RunT(t)
	external := redis.NewClient(&redis.Options{Addr: mr.Addr(), DB: 2, MaxRetries: -1})
	t.Cleanup(func() { _ = external.Close() })

	m := NewManager(nil)
	require.NoError(t, m.AddClient("shared", external))

	ctx := context.Background()
	conn, err := m.ConnectKey(ctx, "shared")
	require.NoError(t, err)
	assert.Same(t, external, conn.Client())

	b, err := conn.Bucket(ctx, DefaultBucket)
	require.NoError(t, err)
	assert.Equal(t, 2, b.DB())
	require.NoError(t, b.Upsert(ctx, "k", []byte("v"), 0))
	assert.True(t, mr.DB(2).Exists("k"))

	require.NoError(t, m.Close(ctx))
	assert.NoError(t, external.Ping(ctx).Err(), "manager must not close a client it does not own")
}

func TestClosedManagerRefusesConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	m := NewManager(nil)
	ctx := context.Background()

	conn, err := m.Connect(ctx, testOptions(mr, nil))
	require.NoError(t, err)
	require.NoError(t, m.Close(ctx))
	require.NoError(t, m.Close(ctx))

	assert.True(t, errors.Is(conn.Client().Ping(ctx).Err(), redis.ErrClosed))
	_, err = m.Connect(ctx, testOptions(mr, nil))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConfigurationsSharingAServerKeepTheirOwnBuckets(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.AddConfiguration("cache1", testOptions(mr, map[string]int{"users": 1})))
	require.NoError(t, m.AddConfiguration("cache2", testOptions(mr, map[string]int{"orders": 2})))

	c1, err := m.ConnectKey(ctx, "cache1")
	require.NoError(t, err)
	c2, err := m.ConnectKey(ctx, "cache2")
	require.NoError(t, err)
	assert.Same(t, c1.Client(), c2.Client())

	orders, err := c2.Bucket(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, 2, orders.DB())
	_, err = c2.Bucket(ctx, "users")
	assert.ErrorIs(t, err, ErrBucketNotFound)
	_, err = c1.Bucket(ctx, "orders")
	assert.ErrorIs(t, err, ErrBucketNotFound)

	require.NoError(t, orders.Upsert(ctx, "o1", []byte("x"), 0))
	assert.True(t, mr.DB(2).Exists("o1"))
	n, err := c2.BucketManager().Count(ctx, "orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	m.mu.RLock()
	assert.Len(t, m.links, 1)
	m.mu.RUnlock()
}

func TestCanceledFirstCallerDoesNotFailPeers(t *testing.T) {
	mr := miniredis.RunT(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			once.Do(func() { close(entered) })
			<-release
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	})
	t.Cleanup(func() { _ = client.Close() })

	m := newTestManager(t)
	require.NoError(t, m.AddClient("slow", client))

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.ConnectKey(firstCtx, "slow")
		firstErr <- err
	}()
	<-entered

	peer := make(chan error, 1)
	go func() {
		_, err := m.ConnectKey(context.Background(), "slow")
		peer <- err
	}()

	cancel()
	err := <-firstErr
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-peer)

	conn, err := m.ConnectKey(context.Background(), "slow")
	require.NoError(t, err)
	assert.Same(t, client, conn.Client())
}
