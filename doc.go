// Package bucketcache implements a distributed cache handle: one tier of a
// multi-tier cache backed by a bucket of a remote Redis-compatible store.
//
// Components:
//   - cluster.Manager: registered cluster configurations and one shared
//     connection per connection string.
//   - Handle[V]: exists/add/get/put/remove/clear against a single bucket.
//   - Codec[V]: (de)serializes V <-> []byte inside the stored document.
//
// Keys:
//
//	<region>:<key>   - entries in a region
//	<key>            - entries in the default region
//	base64(sha256)   - either form longer than 250 bytes
//
// Setup:
//
//	_ = cluster.AddConfiguration("cache1", cluster.Options{
//	    ConnectionString: "redis://cache:6379",
//	    Buckets:          map[string]int{"default": 0, "users": 1},
//	})
//	h, err := bucketcache.New[User](ctx, bucketcache.Options[User]{Name: "cache1:users"})
//	_ = h.Put(ctx, bucketcache.NewItem("alice", u).WithSlidingExpiration(10*time.Minute))
package bucketcache
