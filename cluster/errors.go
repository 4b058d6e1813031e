package cluster

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOptions    = errors.New("cluster: invalid options")
	ErrBucketNotFound    = errors.New("cluster: bucket not found")
	ErrBucketUnsupported = errors.New("cluster: bucket needs a logical database the deployment does not offer")
	ErrClosed            = errors.New("cluster: manager closed")
)

// ConfigurationNotFoundError is returned when a configuration key was never registered.
type ConfigurationNotFoundError struct {
	Key string
}

func (e *ConfigurationNotFoundError) Error() string {
	return fmt.Sprintf("cluster: no configuration added for configuration name %q", e.Key)
}

// ConnectionError reports a failure to establish a connection or resolve a bucket.
// Op is "connect" or "bucket"; Target is the redacted address or the bucket name.
type ConnectionError struct {
	Op     string
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	switch {
	case e.Err != nil && e.Target != "":
		return fmt.Sprintf("cluster: %s %s: %v", e.Op, e.Target, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("cluster: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("cluster: %s %s failed", e.Op, e.Target)
	}
}

func (e *ConnectionError) Unwrap() error { return e.Err }
