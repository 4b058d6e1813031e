package config

import (
	"fmt"
	"strings"

	"github.com/unkn0wn-root/bucketcache/cluster"
)

// Validate checks every cluster section for the fields a connection needs.
func Validate(cfg *Config) error {
	if len(cfg.Clusters) == 0 {
		return fmt.Errorf("clusters: at least one cluster is required")
	}
	for key, o := range cfg.Clusters {
		if err := validateSection(key, o); err != nil {
			return err
		}
	}
	return nil
}

func validateSection(key string, o cluster.Options) error {
	if strings.TrimSpace(o.ConnectionString) == "" {
		return fmt.Errorf("clusters.%s.connectionString is required", key)
	}
	for name, db := range o.Buckets {
		if db < 0 {
			return fmt.Errorf("clusters.%s.buckets.%s: database index must be >= 0, got %d", key, name, db)
		}
	}
	if o.DialTimeout < 0 || o.ReadTimeout < 0 || o.WriteTimeout < 0 {
		return fmt.Errorf("clusters.%s: timeouts must not be negative", key)
	}
	return nil
}
