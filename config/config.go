// Package config loads named cluster settings from a file and the environment.
//
// Example YAML:
//
//	clusters:
//	  cache1:
//	    connectionString: redis://cache.internal:6379/0
//	    password: s3cret
//	    buckets:
//	      default: 0
//	      users: 1
//	    dialTimeout: 2s
//
// Keys are read case-insensitively and map keys come back lower-cased, so
// configuration keys and bucket names should be written in lower case.
package config

import (
	"time"

	"github.com/unkn0wn-root/bucketcache/cluster"
)

const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// Config is the set of cluster configurations, keyed by configuration key.
type Config struct {
	Clusters map[string]cluster.Options `mapstructure:"clusters"`
}

func applyDefaults(o *cluster.Options) {
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
}
