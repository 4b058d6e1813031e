// Package promhooks exports cache hook events as Prometheus counters.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/bucketcache"
)

// Hooks counts every event. Counters carry no key labels so cardinality
// stays bounded; flushes are labelled by bucket.
type Hooks struct {
	staleReads     prometheus.Counter
	slidingRenewed prometheus.Counter
	renewFailures  prometheus.Counter
	addConflicts   prometheus.Counter
	keysDigested   prometheus.Counter
	keyMismatches  prometheus.Counter
	flushes        *prometheus.CounterVec
}

var _ bucketcache.Hooks = (*Hooks)(nil)

// New registers the counters on reg under namespace (default "bucketcache").
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "bucketcache"
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	h := &Hooks{
		staleReads:     counter("stale_reads_total", "Entries found logically expired on read."),
		slidingRenewed: counter("sliding_renewals_total", "Sliding entries re-written on read."),
		renewFailures:  counter("sliding_renew_failures_total", "Sliding re-writes that failed."),
		addConflicts:   counter("add_conflicts_total", "Adds skipped because a live entry existed."),
		keysDigested:   counter("keys_digested_total", "Keys replaced by their digest for length."),
		keyMismatches:  counter("key_mismatches_total", "Stored documents owned by another logical key."),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bucket_flushes_total",
			Help:      "Whole-bucket flushes.",
		}, []string{"bucket"}),
	}

	for _, c := range []prometheus.Collector{
		h.staleReads, h.slidingRenewed, h.renewFailures, h.addConflicts,
		h.keysDigested, h.keyMismatches, h.flushes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) StaleRead(string)                 { h.staleReads.Inc() }
func (h *Hooks) SlidingRenewed(string)            { h.slidingRenewed.Inc() }
func (h *Hooks) SlidingRenewFailed(string, error) { h.renewFailures.Inc() }
func (h *Hooks) AddConflict(string)               { h.addConflicts.Inc() }
func (h *Hooks) KeyDigested(string, int)          { h.keysDigested.Inc() }
func (h *Hooks) KeyMismatch(string)               { h.keyMismatches.Inc() }
func (h *Hooks) BucketFlushed(bucket string)      { h.flushes.WithLabelValues(bucket).Inc() }
