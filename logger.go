package bucketcache

import "github.com/unkn0wn-root/bucketcache/logging"

// Logger, Fields and NopLogger are shared with the cluster package.
// If Logger is nil in Options, logging is disabled.
type (
	Fields    = logging.Fields
	Logger    = logging.Logger
	NopLogger = logging.Nop
)
