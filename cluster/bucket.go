package cluster

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bucket is a handle to one named logical database.
// Operations return raw client errors; callers classify them.
type Bucket struct {
	name string
	db   int
	rdb  redis.UniversalClient
}

func (b *Bucket) Name() string { return b.name }
func (b *Bucket) DB() int      { return b.db }

// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert writes value only if key is absent (SET NX). ttl <= 0 means no expiry.
// It reports whether the key was created.
func (b *Bucket) Insert(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return b.rdb.SetNX(ctx, key, value, clampTTL(ttl)).Result()
}

// Upsert writes value unconditionally. ttl <= 0 stores without expiry and
// drops any TTL left by a previous write.
func (b *Bucket) Upsert(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, clampTTL(ttl)).Err()
}

// Remove deletes key. Deleting an absent key is not an error.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

// Count is the number of keys in the bucket.
func (b *Bucket) Count(ctx context.Context) (int64, error) {
	return dbSize(ctx, b.rdb)
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0 // never KeepTTL (-1)
	}
	return ttl
}

func dbSize(ctx context.Context, rdb redis.UniversalClient) (int64, error) {
	cc, ok := rdb.(*redis.ClusterClient)
	if !ok {
		return rdb.DBSize(ctx).Result()
	}
	var total atomic.Int64
	err := cc.ForEachMaster(ctx, func(ctx context.Context, c *redis.Client) error {
		n, err := c.DBSize(ctx).Result()
		total.Add(n)
		return err
	})
	return total.Load(), err
}

func flushDB(ctx context.Context, rdb redis.UniversalClient) error {
	cc, ok := rdb.(*redis.ClusterClient)
	if !ok {
		return rdb.FlushDB(ctx).Err()
	}
	return cc.ForEachMaster(ctx, func(ctx context.Context, c *redis.Client) error {
		return c.FlushDB(ctx).Err()
	})
}

// BucketManager runs whole-bucket administrative operations.
type BucketManager struct {
	conn *Connection
}

// Flush deletes every key in the named bucket. Expensive and irreversible.
func (m *BucketManager) Flush(ctx context.Context, bucket string) error {
	rdb, err := m.conn.clientFor(bucket)
	if err != nil {
		return err
	}
	return flushDB(ctx, rdb)
}

// Count reports the number of keys in the named bucket.
func (m *BucketManager) Count(ctx context.Context, bucket string) (int64, error) {
	rdb, err := m.conn.clientFor(bucket)
	if err != nil {
		return 0, err
	}
	return dbSize(ctx, rdb)
}
