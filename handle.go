package bucketcache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/unkn0wn-root/bucketcache/cluster"
	c "github.com/unkn0wn-root/bucketcache/codec"
	"github.com/unkn0wn-root/bucketcache/internal/keys"
	"github.com/unkn0wn-root/bucketcache/internal/wire"
)

// minStoreTTL is written for expiring items whose timeout is not positive,
// so the store drops them even if they are never read again.
const minStoreTTL = time.Millisecond

type handle[V any] struct {
	name      string
	configKey string
	bucket    *cluster.Bucket
	admin     *cluster.BucketManager
	codec     c.Codec[V]
	types     map[string]reflect.Type
	log       Logger
	hooks     Hooks
	now       func() time.Time
}

var _ Handle[struct{}] = (*handle[struct{}])(nil)

func newHandle[V any](ctx context.Context, opts Options[V]) (*handle[V], error) {
	configKey, bucketName, err := parseName(opts.Name)
	if err != nil {
		return nil, err
	}
	if opts.Bucket != "" {
		bucketName = opts.Bucket
	}

	h := &handle[V]{
		name:      opts.Name,
		configKey: configKey,
		codec:     opts.Codec,
	}
	if h.codec == nil {
		h.codec = c.JSON[V]{}
	}
	h.log = coalesce[Logger](opts.Logger, NopLogger{})
	h.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	h.now = opts.Clock
	if h.now == nil {
		h.now = time.Now
	}
	if h.types, err = valueTypes[V](opts.ValueTypes); err != nil {
		return nil, err
	}

	m := opts.Manager
	if m == nil {
		m = cluster.Default
	}
	conn, err := m.ConnectKey(ctx, configKey)
	if err != nil {
		return nil, err
	}
	if h.bucket, err = conn.Bucket(ctx, bucketName); err != nil {
		return nil, err
	}
	h.admin = conn.BucketManager()

	h.log.Info("cache handle ready", Fields{"handle": h.name, "config": h.configKey, "bucket": h.bucket.Name(), "db": h.bucket.DB()})
	return h, nil
}

// parseName splits "<configKey>:<bucket>". Empty segments are ignored.
func parseName(name string) (configKey, bucket string, err error) {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == ':' })
	if len(parts) == 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	configKey = parts[0]
	if len(parts) >= 2 {
		bucket = parts[1]
	}
	return configKey, bucket, nil
}

func valueTypes[V any](ts []reflect.Type) (map[string]reflect.Type, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	target := reflect.TypeOf((*V)(nil)).Elem()
	out := make(map[string]reflect.Type, len(ts))
	for _, t := range ts {
		if t == nil || !t.AssignableTo(target) {
			return nil, fmt.Errorf("bucketcache: value type %v is not assignable to %v", t, target)
		}
		out[t.String()] = t
	}
	return out, nil
}

func (h *handle[V]) Name() string        { return h.name }
func (h *handle[V]) BucketName() string  { return h.bucket.Name() }
func (h *handle[V]) IsDistributed() bool { return true }

func (h *handle[V]) Exists(ctx context.Context, key, region string) (bool, error) {
	sk, err := h.storeKey(key, region)
	if err != nil {
		return false, err
	}
	ok, err := h.bucket.Exists(ctx, sk)
	if err != nil {
		return false, unavailable("exists", sk, err)
	}
	return ok, nil
}

// Add relies on SET NX, so two concurrent adders cannot both win.
func (h *handle[V]) Add(ctx context.Context, item Item[V]) (bool, error) {
	sk, doc, err := h.encode(item)
	if err != nil {
		return false, err
	}
	created, err := h.bucket.Insert(ctx, sk, doc, storeTTL(item))
	if err != nil {
		return false, unavailable("add", sk, err)
	}
	if !created {
		h.hooks.AddConflict(sk)
		h.log.Debug("add skipped (entry exists)", Fields{"key": item.Key, "region": item.Region})
	}
	return created, nil
}

func (h *handle[V]) Get(ctx context.Context, key, region string) (*Item[V], error) {
	sk, err := h.storeKey(key, region)
	if err != nil {
		return nil, err
	}
	raw, ok, err := h.bucket.Get(ctx, sk)
	if err != nil {
		return nil, unavailable("get", sk, err)
	}
	if !ok {
		return nil, nil
	}

	it, err := h.decode(sk, raw)
	if err != nil {
		return nil, err
	}
	if it.Key != key || it.Region != region {
		h.hooks.KeyMismatch(sk)
		h.log.Warn("stored entry belongs to another key", Fields{"key": key, "region": region})
		return nil, nil
	}

	now := h.now()
	if it.IsExpired(now) {
		// the store TTL evicts it; a delete here could race a fresh Put
		h.hooks.StaleRead(sk)
		return nil, nil
	}

	if it.ExpirationMode == ExpireSliding {
		it.LastAccessedAt = now
		if err := h.write(ctx, sk, *it); err != nil {
			h.hooks.SlidingRenewFailed(sk, err)
			h.log.Warn("sliding renewal failed", Fields{"key": key, "region": region, "err": err})
		} else {
			h.hooks.SlidingRenewed(sk)
		}
	}
	return it, nil
}

func (h *handle[V]) Value(ctx context.Context, key, region string) (V, bool, error) {
	var zero V
	it, err := h.Get(ctx, key, region)
	if err != nil || it == nil {
		return zero, false, err
	}
	return it.Value, true, nil
}

func (h *handle[V]) Put(ctx context.Context, item Item[V]) error {
	sk, doc, err := h.encode(item)
	if err != nil {
		return err
	}
	if err := h.bucket.Upsert(ctx, sk, doc, storeTTL(item)); err != nil {
		return unavailable("put", sk, err)
	}
	return nil
}

// Remove reports true once the delete completed; the key need not have existed.
func (h *handle[V]) Remove(ctx context.Context, key, region string) (bool, error) {
	sk, err := h.storeKey(key, region)
	if err != nil {
		return false, err
	}
	if err := h.bucket.Remove(ctx, sk); err != nil {
		return false, unavailable("remove", sk, err)
	}
	return true, nil
}

func (h *handle[V]) Clear(ctx context.Context) error {
	name := h.bucket.Name()
	if err := h.admin.Flush(ctx, name); err != nil {
		var ce *cluster.ConnectionError
		if errors.As(err, &ce) {
			return err
		}
		return unavailable("clear", "", err)
	}
	h.hooks.BucketFlushed(name)
	h.log.Info("bucket flushed", Fields{"handle": h.name, "bucket": name})
	return nil
}

func (h *handle[V]) ClearRegion(_ context.Context, region string) error {
	return &NotSupportedError{Op: "ClearRegion", Reason: "the store has no region index; use Clear"}
}

func (h *handle[V]) Count(ctx context.Context) (int64, error) {
	n, err := h.bucket.Count(ctx)
	if err != nil {
		return 0, unavailable("count", "", err)
	}
	return n, nil
}

func (h *handle[V]) storeKey(key, region string) (string, error) {
	sk, digested, err := keys.Store(region, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if digested {
		h.hooks.KeyDigested(sk, len(keys.Join(region, key)))
	}
	return sk, nil
}

// encode stamps the item and frames it as a stored document.
func (h *handle[V]) encode(item Item[V]) (string, []byte, error) {
	sk, err := h.storeKey(item.Key, item.Region)
	if err != nil {
		return "", nil, err
	}
	now := h.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.LastAccessedAt.IsZero() {
		item.LastAccessedAt = now
	}
	if item.ValueType == "" {
		item.ValueType = typeName(item.Value)
	}
	doc, err := h.frame(item)
	if err != nil {
		return "", nil, fmt.Errorf("bucketcache: encode %q: %w", item.Key, err)
	}
	return sk, doc, nil
}

func (h *handle[V]) frame(item Item[V]) ([]byte, error) {
	payload, err := h.codec.Encode(item.Value)
	if err != nil {
		return nil, err
	}
	return wire.Encode(wire.Entry{
		Mode:           uint8(item.ExpirationMode),
		Timeout:        item.ExpirationTimeout,
		CreatedAt:      item.CreatedAt,
		LastAccessedAt: item.LastAccessedAt,
		Key:            item.Key,
		Region:         item.Region,
		ValueType:      item.ValueType,
		Payload:        payload,
	})
}

// write re-frames an already stamped item and upserts it.
func (h *handle[V]) write(ctx context.Context, sk string, item Item[V]) error {
	doc, err := h.frame(item)
	if err != nil {
		return err
	}
	if err := h.bucket.Upsert(ctx, sk, doc, storeTTL(item)); err != nil {
		return unavailable("put", sk, err)
	}
	return nil
}

func (h *handle[V]) decode(sk string, raw []byte) (*Item[V], error) {
	e, err := wire.Decode(raw)
	if err != nil {
		return nil, &DeserializationError{Key: sk, Err: err}
	}
	mode := ExpirationMode(e.Mode)
	if mode > ExpireSliding {
		return nil, &DeserializationError{Key: sk, Err: fmt.Errorf("unknown expiration mode %d", e.Mode)}
	}
	v, err := h.codec.Decode(e.Payload)
	if err != nil {
		return nil, &DeserializationError{Key: sk, Err: err}
	}
	if v, err = h.rehydrate(e.ValueType, e.Payload, v); err != nil {
		return nil, &DeserializationError{Key: sk, Err: err}
	}
	return &Item[V]{
		Key:               e.Key,
		Region:            e.Region,
		Value:             v,
		ValueType:         e.ValueType,
		ExpirationMode:    mode,
		ExpirationTimeout: e.Timeout,
		CreatedAt:         e.CreatedAt,
		LastAccessedAt:    e.LastAccessedAt,
	}, nil
}

// rehydrate converts a generic document (maps, slices) decoded into an
// interface-typed V back into the concrete type recorded at write time.
func (h *handle[V]) rehydrate(valueType string, payload []byte, v V) (V, error) {
	if len(h.types) == 0 || !isGeneric(any(v)) {
		return v, nil
	}
	t, ok := h.types[valueType]
	if !ok {
		return v, nil
	}
	into, ok := h.codec.(c.Into)
	if !ok {
		return v, nil
	}
	ptr := reflect.New(t)
	if err := into.DecodeInto(payload, ptr.Interface()); err != nil {
		return v, fmt.Errorf("rehydrate %s: %w", valueType, err)
	}
	out, ok := ptr.Elem().Interface().(V)
	if !ok {
		return v, fmt.Errorf("rehydrate %s: not assignable", valueType)
	}
	return out, nil
}

func isGeneric(x any) bool {
	switch x.(type) {
	case map[string]any, map[any]any, []any:
		return true
	}
	return false
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	return t.String()
}

func storeTTL[V any](item Item[V]) time.Duration {
	if item.ExpirationMode == ExpireNone {
		return 0
	}
	if item.ExpirationTimeout <= 0 {
		return minStoreTTL
	}
	return item.ExpirationTimeout
}

func unavailable(op, key string, err error) error {
	var bu *BackendUnavailableError
	if errors.As(err, &bu) {
		return err
	}
	return &BackendUnavailableError{Op: op, Key: key, Err: err}
}
