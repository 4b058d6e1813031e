package bucketcache

import (
	"context"
	"reflect"
	"time"

	"github.com/unkn0wn-root/bucketcache/cluster"
	c "github.com/unkn0wn-root/bucketcache/codec"
)

// Handle is one distributed cache tier backed by a bucket of a remote store.
// V is the caller's value type. Serialization is handled by a pluggable Codec[V].
//
// Every method blocks until the store round trip completes. Store faults are
// returned as *BackendUnavailableError; a miss is never an error.
type Handle[V any] interface {
	Name() string
	BucketName() string
	// IsDistributed is always true: the tier is shared across processes.
	IsDistributed() bool

	Exists(ctx context.Context, key, region string) (bool, error)
	// Add stores item only if no live entry exists and reports whether it did.
	Add(ctx context.Context, item Item[V]) (bool, error)
	// Get returns nil, nil on a miss or when the entry is logically expired.
	Get(ctx context.Context, key, region string) (*Item[V], error)
	Value(ctx context.Context, key, region string) (v V, ok bool, err error)
	Put(ctx context.Context, item Item[V]) error
	Remove(ctx context.Context, key, region string) (bool, error)

	// Clear flushes the whole bucket, every region included.
	Clear(ctx context.Context) error
	// ClearRegion always fails with ErrNotSupported.
	ClearRegion(ctx context.Context, region string) error
	// Count is the store-reported item count; approximate under concurrent writers.
	Count(ctx context.Context) (int64, error)
}

// Options configure a Handle. Only Name is required.
type Options[V any] struct {
	// Name is the handle identifier "<configKey>[:<bucket>]".
	Name string
	// Bucket overrides the bucket embedded in Name; "" => embedded or "default".
	Bucket string

	Manager *cluster.Manager // nil => cluster.Default
	Codec   c.Codec[V]       // nil => codec.JSON[V]

	// ValueTypes lists concrete types a generic document may be re-hydrated
	// into. Only used when V is an interface type; each must be assignable to V.
	ValueTypes []reflect.Type

	Logger Logger           // if nil, NopLogger is used
	Hooks  Hooks            // if nil, NopHooks is used
	Clock  func() time.Time // nil => time.Now
}

// New resolves the handle's configuration, connection and bucket.
// Missing configuration, an unreachable cluster or an unknown bucket abort construction.
func New[V any](ctx context.Context, opts Options[V]) (Handle[V], error) {
	return newHandle[V](ctx, opts)
}
