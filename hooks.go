package bucketcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The handle calls them on hot paths.
type Hooks interface {
	// A stored entry was logically expired on read and reported as a miss.
	StaleRead(storeKey string)

	// A sliding entry was re-written with a renewed TTL on read.
	SlidingRenewed(storeKey string)

	// The sliding re-write failed; the item was still returned.
	SlidingRenewFailed(storeKey string, err error)

	// Add found a live entry and did not write.
	AddConflict(storeKey string)

	// region:key exceeded the key ceiling and was replaced by its digest.
	// logicalLen is the byte length of the joined form.
	KeyDigested(storeKey string, logicalLen int)

	// The document under storeKey belongs to another logical (region, key).
	KeyMismatch(storeKey string)

	// Clear flushed the bucket.
	BucketFlushed(bucket string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StaleRead(string)                 {}
func (NopHooks) SlidingRenewed(string)            {}
func (NopHooks) SlidingRenewFailed(string, error) {}
func (NopHooks) AddConflict(string)               {}
func (NopHooks) KeyDigested(string, int)          {}
func (NopHooks) KeyMismatch(string)               {}
func (NopHooks) BucketFlushed(string)             {}
