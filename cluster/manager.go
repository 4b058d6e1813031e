package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/bucketcache/logging"
)

// Manager registers cluster configurations and shares one connection per
// distinct connection string. The zero value is not usable; use NewManager.
type Manager struct {
	log logging.Logger

	mu      sync.RWMutex
	configs map[string]Options
	links   map[string]*link // by Options.shareKey
	closed  bool

	dials singleflight.Group
}

// Default is the process-wide manager used when a handle names none.
var Default = NewManager(nil)

// AddConfiguration registers opts under key on the Default manager.
func AddConfiguration(key string, opts Options) error { return Default.AddConfiguration(key, opts) }

// AddClient registers a pre-built client under key on the Default manager.
func AddClient(key string, client redis.UniversalClient) error { return Default.AddClient(key, client) }

func NewManager(log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{
		log:     log,
		configs: make(map[string]Options),
		links:   make(map[string]*link),
	}
}

// AddConfiguration registers opts under key. The first registration of a key wins.
func (m *Manager) AddConfiguration(key string, opts Options) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: configuration key is required", ErrInvalidOptions)
	}
	if err := opts.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[key]; ok {
		m.log.Debug("cluster configuration already registered", logging.Fields{"key": key})
		return nil
	}
	m.configs[key] = opts
	return nil
}

// AddClient registers a client built elsewhere so it can be shared with code
// outside the cache. The manager never closes it.
func (m *Manager) AddClient(key string, client redis.UniversalClient) error {
	if client == nil {
		return fmt.Errorf("%w: nil client", ErrInvalidOptions)
	}
	return m.AddConfiguration(key, Options{ConnectionString: "client:" + key, Client: client})
}

// Configuration returns the options registered under key.
func (m *Manager) Configuration(key string) (Options, error) {
	m.mu.RLock()
	opts, ok := m.configs[key]
	m.mu.RUnlock()
	if !ok {
		return Options{}, &ConfigurationNotFoundError{Key: key}
	}
	return opts, nil
}

// ConnectKey resolves the configuration registered under key and connects.
func (m *Manager) ConnectKey(ctx context.Context, key string) (*Connection, error) {
	opts, err := m.Configuration(key)
	if err != nil {
		return nil, err
	}
	return m.Connect(ctx, opts)
}

// Connect returns opts' view of the shared connection for its connection
// string and credentials, dialing it on first use. Concurrent first callers
// share a single dial bounded by DialTimeout, not by any one caller's ctx; each
// caller stops waiting when its own ctx is done. A failed dial is not cached.
// Buckets resolve against opts, so configurations sharing a server may
// declare different buckets.
func (m *Manager) Connect(ctx context.Context, opts Options) (*Connection, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	key := opts.shareKey()
	if l, err := m.lookup(key); l != nil || err != nil {
		return view(l, opts), err
	}

	dialCtx := context.WithoutCancel(ctx)
	ch := m.dials.DoChan(key, func() (any, error) {
		if l, err := m.lookup(key); l != nil || err != nil {
			return l, err
		}
		l, err := m.dial(dialCtx, opts)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = l.close()
			return nil, ErrClosed
		}
		m.links[key] = l
		return l, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return view(r.Val.(*link), opts), nil
	case <-ctx.Done():
		return nil, &ConnectionError{Op: "connect", Target: opts.identity(), Err: ctx.Err()}
	}
}

func view(l *link, opts Options) *Connection {
	if l == nil {
		return nil
	}
	return &Connection{link: l, opts: opts}
}

func (m *Manager) lookup(key string) (*link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.links[key], nil
}

func (m *Manager) dial(ctx context.Context, opts Options) (*link, error) {
	var (
		id     = opts.identity()
		client redis.UniversalClient
		uopts  *redis.UniversalOptions
		target = id
		owned  bool
	)
	if opts.Client != nil {
		client = opts.Client
	} else {
		var err error
		uopts, err = opts.universal()
		if err != nil {
			return nil, &ConnectionError{Op: "connect", Err: err}
		}
		target = strings.Join(uopts.Addrs, ",")
		client = redis.NewUniversalClient(uopts)
		owned = true
	}

	if err := client.Ping(ctx).Err(); err != nil {
		if owned {
			_ = client.Close()
		}
		m.log.Error("cluster connect failed", logging.Fields{"target": target, "err": err})
		return nil, &ConnectionError{Op: "connect", Target: target, Err: err}
	}

	m.log.Info("cluster connected", logging.Fields{"target": target, "shared": !owned})
	return newLink(id, target, uopts, client, owned), nil
}

// Close tears down every connection the manager dialed. Registered
// configurations are kept; further Connect calls fail with ErrClosed.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	m.closed = true
	links := m.links
	m.links = make(map[string]*link)
	m.mu.Unlock()

	var errs []error
	for _, l := range links {
		errs = append(errs, l.close())
	}
	return errors.Join(errs...)
}
