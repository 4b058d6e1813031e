// Package cluster owns connections to a Redis (or Redis-compatible) deployment
// and resolves named buckets on them.
//
// A Manager keeps two process-wide maps:
//
//	configuration key -> Options       (registered once at startup)
//	connection string + credentials -> client   (created on first use, then shared)
//
// Each Connect returns a *Connection view over the shared client that
// resolves bucket names against the caller's Options.
//
// Buckets are named logical databases declared in Options.Buckets. With no
// buckets declared a connection exposes a single bucket "default" bound to the
// database selected by the connection string.
package cluster
