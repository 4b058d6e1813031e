package bucketcache

import "time"

// ExpirationMode selects how an item's timeout is applied.
type ExpirationMode uint8

const (
	ExpireNone     ExpirationMode = iota // never expires
	ExpireAbsolute                       // expires timeout after CreatedAt
	ExpireSliding                        // expires timeout after LastAccessedAt; renewed by reads
)

func (m ExpirationMode) String() string {
	switch m {
	case ExpireNone:
		return "none"
	case ExpireAbsolute:
		return "absolute"
	case ExpireSliding:
		return "sliding"
	default:
		return "unknown"
	}
}

// Item is the unit stored and retrieved by a Handle.
// Region "" is the default namespace.
type Item[V any] struct {
	Key    string
	Region string
	Value  V
	// ValueType is the Go type name of Value. Filled on write when empty and
	// used to re-hydrate generic documents on read.
	ValueType string

	ExpirationMode    ExpirationMode
	ExpirationTimeout time.Duration

	CreatedAt      time.Time
	LastAccessedAt time.Time
}

func NewItem[V any](key string, value V) Item[V] {
	return Item[V]{Key: key, Value: value}
}

func NewRegionItem[V any](key, region string, value V) Item[V] {
	return Item[V]{Key: key, Region: region, Value: value}
}

func (i Item[V]) WithAbsoluteExpiration(timeout time.Duration) Item[V] {
	i.ExpirationMode = ExpireAbsolute
	i.ExpirationTimeout = timeout
	return i
}

func (i Item[V]) WithSlidingExpiration(timeout time.Duration) Item[V] {
	i.ExpirationMode = ExpireSliding
	i.ExpirationTimeout = timeout
	return i
}

func (i Item[V]) WithNoExpiration() Item[V] {
	i.ExpirationMode = ExpireNone
	i.ExpirationTimeout = 0
	return i
}

func (i Item[V]) WithValue(v V) Item[V] {
	i.Value = v
	i.ValueType = ""
	return i
}

// ExpiresAt is the logical expiry instant; zero when the item never expires.
func (i Item[V]) ExpiresAt() time.Time {
	switch i.ExpirationMode {
	case ExpireAbsolute:
		return i.CreatedAt.Add(i.ExpirationTimeout)
	case ExpireSliding:
		return i.LastAccessedAt.Add(i.ExpirationTimeout)
	default:
		return time.Time{}
	}
}

// IsExpired reports whether the item is logically expired at now.
// A non-positive timeout on an expiring item means it is already expired.
func (i Item[V]) IsExpired(now time.Time) bool {
	if i.ExpirationMode == ExpireNone {
		return false
	}
	if i.ExpirationTimeout <= 0 {
		return true
	}
	return !now.Before(i.ExpiresAt())
}
