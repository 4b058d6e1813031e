package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/unkn0wn-root/bucketcache/cluster"
)

// Load loads configuration from a file and environment variables.
// The prefix parameter is used for environment variable names
// (e.g., "APP" -> APP_CLUSTERS_CACHE1_PASSWORD). Environment values only
// override keys the file already declares, so a file is required to declare
// clusters; with an empty configPath Load fails validation.
func Load(configPath, envPrefix string) (*Config, error) {
	v := newViper(envPrefix)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	for key, o := range cfg.Clusters {
		applyDefaults(&o)
		cfg.Clusters[key] = o
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(configPath, envPrefix string) *Config {
	cfg, err := Load(configPath, envPrefix)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Section binds the single cluster section stored under key in v.
func Section(v *viper.Viper, key string) (cluster.Options, error) {
	sub := v.Sub(key)
	if sub == nil {
		return cluster.Options{}, &cluster.ConfigurationNotFoundError{Key: key}
	}
	var o cluster.Options
	if err := sub.Unmarshal(&o); err != nil {
		return cluster.Options{}, fmt.Errorf("failed to unmarshal section %q: %w", key, err)
	}
	applyDefaults(&o)
	if err := validateSection(key, o); err != nil {
		return cluster.Options{}, err
	}
	return o, nil
}

// Register adds every cluster to m under its configuration key, in key order.
// Keys already registered keep their first configuration.
func (c *Config) Register(m *cluster.Manager) error {
	keys := make([]string, 0, len(c.Clusters))
	for k := range c.Clusters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.AddConfiguration(k, c.Clusters[k]); err != nil {
			return fmt.Errorf("register cluster %q: %w", k, err)
		}
	}
	return nil
}

func newViper(envPrefix string) *viper.Viper {
	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
