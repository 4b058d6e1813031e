package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/bucketcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	StaleReadEvery   uint64
	AddConflictEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	staleCtr    atomic.Uint64
	conflictCtr atomic.Uint64
}

var _ bucketcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StaleRead(storeKey string) {
	if h.l == nil || !sample(h.opts.StaleReadEvery, &h.staleCtr) {
		return
	}
	h.l.Debug("bucketcache.stale_read", "key", h.redact(storeKey))
}

// SlidingRenewed is too frequent to log.
func (h *Hooks) SlidingRenewed(string) {}

func (h *Hooks) SlidingRenewFailed(storeKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("bucketcache.sliding_renew_failed",
		"key", h.redact(storeKey),
		"err", err)
}

func (h *Hooks) AddConflict(storeKey string) {
	if h.l == nil || !sample(h.opts.AddConflictEvery, &h.conflictCtr) {
		return
	}
	h.l.Debug("bucketcache.add_conflict", "key", h.redact(storeKey))
}

func (h *Hooks) KeyDigested(storeKey string, logicalLen int) {
	if h.l == nil {
		return
	}
	h.l.Debug("bucketcache.key_digested",
		"key", h.redact(storeKey),
		"logical_len", logicalLen)
}

func (h *Hooks) KeyMismatch(storeKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("bucketcache.key_mismatch",
		"key", h.redact(storeKey),
		"msg", "stored document belongs to another key; digest collision or foreign writer")
}

func (h *Hooks) BucketFlushed(bucket string) {
	if h.l == nil {
		return
	}
	h.l.Info("bucketcache.bucket_flushed", "bucket", bucket)
}
