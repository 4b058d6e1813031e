package cluster

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBucket is the bucket name used when a handle names none.
const DefaultBucket = "default"

// Options are the connection settings of one cluster configuration.
//
// Example YAML (see package config):
//
//	connectionString: redis://cache.internal:6379/0
//	password: s3cret
//	buckets:
//	  default: 0
//	  users: 1
//	dialTimeout: 5s
type Options struct {
	// ConnectionString identifies the deployment and is the sharing key of its
	// connection. Either a redis:// or rediss:// URL, or a comma-separated
	// host:port list (several addresses select cluster mode).
	ConnectionString string `mapstructure:"connectionString" json:"connectionString" yaml:"connectionString"`

	// Username and Password override credentials embedded in the URL.
	Username string `mapstructure:"username" json:"username" yaml:"username"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`

	// Buckets maps bucket names to logical database indexes.
	Buckets map[string]int `mapstructure:"buckets" json:"buckets" yaml:"buckets"`

	DialTimeout  time.Duration `mapstructure:"dialTimeout" json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout" json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout" json:"writeTimeout" yaml:"writeTimeout"`
	PoolSize     int           `mapstructure:"poolSize" json:"poolSize" yaml:"poolSize"`
	// MaxRetries is handed to the client; 0 keeps the client default, -1 disables retries.
	MaxRetries int `mapstructure:"maxRetries" json:"maxRetries" yaml:"maxRetries"`

	// Client is a pre-built client to share instead of dialing. Never loaded from files.
	Client redis.UniversalClient `mapstructure:"-" json:"-" yaml:"-"`
}

func (o Options) validate() error {
	if strings.TrimSpace(o.ConnectionString) == "" {
		return fmt.Errorf("%w: connection string is required", ErrInvalidOptions)
	}
	for name, db := range o.Buckets {
		if name == "" || db < 0 {
			return fmt.Errorf("%w: bucket %q -> db %d", ErrInvalidOptions, name, db)
		}
	}
	return nil
}

// identity is the connection string a connection is shared under.
func (o Options) identity() string { return strings.TrimSpace(o.ConnectionString) }

// shareKey extends identity with the credential overrides, so configurations
// authenticating as different users never share a client. Client tuning
// (timeouts, pool size, retries) is taken from the first configuration dialed.
func (o Options) shareKey() string {
	if o.Username == "" && o.Password == "" {
		return o.identity()
	}
	return o.identity() + "\x00" + o.Username + "\x00" + o.Password
}

// bucketDB resolves a bucket name to its logical database.
func (o Options) bucketDB(name string, baseDB int) (int, bool) {
	if len(o.Buckets) == 0 {
		return baseDB, name == DefaultBucket
	}
	db, ok := o.Buckets[name]
	return db, ok
}

// universal builds client options from the connection string and overrides.
func (o Options) universal() (*redis.UniversalOptions, error) {
	cs := o.identity()
	u := &redis.UniversalOptions{}
	if strings.Contains(cs, "://") {
		po, err := redis.ParseURL(cs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		u.Addrs = []string{po.Addr}
		u.Username = po.Username
		u.Password = po.Password
		u.DB = po.DB
		u.TLSConfig = po.TLSConfig
	} else {
		for _, a := range strings.Split(cs, ",") {
			if a = strings.TrimSpace(a); a != "" {
				u.Addrs = append(u.Addrs, a)
			}
		}
		if len(u.Addrs) == 0 {
			return nil, fmt.Errorf("%w: no addresses in %q", ErrInvalidOptions, cs)
		}
	}

	if o.Username != "" {
		u.Username = o.Username
	}
	if o.Password != "" {
		u.Password = o.Password
	}
	u.DialTimeout = o.DialTimeout
	u.ReadTimeout = o.ReadTimeout
	u.WriteTimeout = o.WriteTimeout
	u.PoolSize = o.PoolSize
	u.MaxRetries = o.MaxRetries
	return u, nil
}
