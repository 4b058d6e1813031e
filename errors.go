package bucketcache

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/bucketcache/cluster"
)

// Errors raised while constructing a handle come from the cluster manager.
type (
	ConfigurationNotFoundError = cluster.ConfigurationNotFoundError
	ConnectionError            = cluster.ConnectionError
)

var (
	ErrInvalidKey   = errors.New("bucketcache: invalid key")
	ErrInvalidName  = errors.New("bucketcache: invalid handle name")
	ErrNotSupported = errors.New("bucketcache: operation not supported")
)

// BackendUnavailableError wraps a store fault (network, auth, timeout,
// cancellation) raised while serving Op for the physical Key.
type BackendUnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("bucketcache: %s: backend unavailable: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("bucketcache: %s %q: backend unavailable: %v", e.Op, e.Key, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// DeserializationError reports a stored document that could not be turned
// back into an item. It is never reported as a miss.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("bucketcache: decode %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// NotSupportedError is returned by operations the backing store cannot serve.
// It matches ErrNotSupported with errors.Is.
type NotSupportedError struct {
	Op     string
	Reason string
}

func (e *NotSupportedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bucketcache: %s not supported", e.Op)
	}
	return fmt.Sprintf("bucketcache: %s not supported: %s", e.Op, e.Reason)
}

func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }
