package cluster

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// link is the client state shared by every configuration that resolves to
// the same deployment and credentials.
type link struct {
	id     string
	target string
	uopts  *redis.UniversalOptions // nil for pre-built clients
	base   redis.UniversalClient
	baseDB int
	owned  bool

	mu  sync.Mutex
	dbs map[int]redis.UniversalClient

	closeOnce sync.Once
	closeErr  error
}

func newLink(id, target string, uopts *redis.UniversalOptions, client redis.UniversalClient, owned bool) *link {
	l := &link{
		id:     id,
		target: target,
		uopts:  uopts,
		base:   client,
		owned:  owned,
		dbs:    make(map[int]redis.UniversalClient),
	}
	switch {
	case uopts != nil:
		l.baseDB = uopts.DB
	default:
		if rc, ok := client.(*redis.Client); ok {
			l.baseDB = rc.Options().DB
		}
	}
	return l
}

// Connection is one configuration's view of a shared connection: the client
// and per-database clients are shared, bucket names resolve against the
// configuration that asked for it. It is safe for concurrent use.
type Connection struct {
	*link
	opts Options
}

// ID is the connection string the connection is shared under.
func (c *Connection) ID() string { return c.id }

// Client exposes the underlying client bound to the connection's base database.
func (c *Connection) Client() redis.UniversalClient { return c.base }

// Bucket resolves the named bucket and verifies it is reachable.
func (c *Connection) Bucket(ctx context.Context, name string) (*Bucket, error) {
	if name == "" {
		name = DefaultBucket
	}
	db, ok := c.opts.bucketDB(name, c.baseDB)
	if !ok {
		return nil, &ConnectionError{Op: "bucket", Target: name, Err: ErrBucketNotFound}
	}
	rdb, err := c.dbClient(db)
	if err != nil {
		return nil, &ConnectionError{Op: "bucket", Target: name, Err: err}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, &ConnectionError{Op: "bucket", Target: name, Err: err}
	}
	return &Bucket{name: name, db: db, rdb: rdb}, nil
}

// BucketManager returns the administrative handle for this connection.
func (c *Connection) BucketManager() *BucketManager {
	return &BucketManager{conn: c}
}

func (c *Connection) clientFor(bucket string) (redis.UniversalClient, error) {
	db, ok := c.opts.bucketDB(bucket, c.baseDB)
	if !ok {
		return nil, &ConnectionError{Op: "bucket", Target: bucket, Err: ErrBucketNotFound}
	}
	rdb, err := c.dbClient(db)
	if err != nil {
		return nil, &ConnectionError{Op: "bucket", Target: bucket, Err: err}
	}
	return rdb, nil
}

// dbClient returns a client bound to db, creating it once per connection.
// Clients are lazy, so creation does no network I/O.
func (l *link) dbClient(db int) (redis.UniversalClient, error) {
	if db == l.baseDB {
		return l.base, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if rdb, ok := l.dbs[db]; ok {
		return rdb, nil
	}

	var rdb redis.UniversalClient
	switch base := l.base.(type) {
	case *redis.ClusterClient:
		return nil, ErrBucketUnsupported
	case *redis.Client:
		if l.uopts != nil {
			uo := *l.uopts
			uo.DB = db
			rdb = redis.NewUniversalClient(&uo)
		} else {
			o := *base.Options()
			o.DB = db
			rdb = redis.NewClient(&o)
		}
	default:
		return nil, ErrBucketUnsupported
	}
	l.dbs[db] = rdb
	return rdb, nil
}

func (l *link) close() error {
	l.closeOnce.Do(func() {
		var errs []error
		l.mu.Lock()
		for _, rdb := range l.dbs {
			errs = append(errs, closeClient(rdb))
		}
		l.dbs = map[int]redis.UniversalClient{}
		l.mu.Unlock()
		if l.owned {
			errs = append(errs, closeClient(l.base))
		}
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}

func closeClient(rdb redis.UniversalClient) error {
	if err := rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
