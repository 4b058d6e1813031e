// Package asynchook moves hook delivery off the cache's hot path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    StaleReadEvery: 10, // sample logs: ~every 10th stale read
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	users, _ := bucketcache.New[User](ctx, bucketcache.Options[User]{
//	    Name:  "cache1:users",
//	    Hooks: hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/bucketcache"
)

// Hooks queues events for a pool of workers. Events arriving while the
// queue is full are dropped and counted.
type Hooks struct {
	inner   bucketcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ bucketcache.Hooks = (*Hooks)(nil)

func New(inner bucketcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped is the number of events lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) StaleRead(k string)      { h.try(func() { h.inner.StaleRead(k) }) }
func (h *Hooks) SlidingRenewed(k string) { h.try(func() { h.inner.SlidingRenewed(k) }) }
func (h *Hooks) SlidingRenewFailed(k string, err error) {
	h.try(func() { h.inner.SlidingRenewFailed(k, err) })
}
func (h *Hooks) AddConflict(k string) { h.try(func() { h.inner.AddConflict(k) }) }
func (h *Hooks) KeyDigested(k string, n int) {
	h.try(func() { h.inner.KeyDigested(k, n) })
}
func (h *Hooks) KeyMismatch(k string)   { h.try(func() { h.inner.KeyMismatch(k) }) }
func (h *Hooks) BucketFlushed(b string) { h.try(func() { h.inner.BucketFlushed(b) }) }
