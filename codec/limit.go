package codec

import (
	"errors"
	"fmt"
)

// LimitCodec wraps another codec to enforce a maximum allowed payload size
// at Decode time. Encode is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized/malicious inputs coming from a
// shared cache or untrusted source.
type LimitCodec[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner interface {
		Encode(V) ([]byte, error)
		Decode([]byte) (V, error)
	}
	// MaxDecode is the maximum permitted length (in bytes) of the incoming
	// payload for Decode. If payload length exceeds MaxDecode, Decode returns
	// an error without invoking Inner.
	MaxDecode int
}

var errNoInto = errors.New("codec: inner codec cannot decode into arbitrary types")

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if err := c.check(b); err != nil {
		var zero V
		return zero, err
	}
	return c.Inner.Decode(b)
}

// DecodeInto applies the same limit and forwards to Inner when it implements Into.
func (c LimitCodec[V]) DecodeInto(b []byte, dst any) error {
	if err := c.check(b); err != nil {
		return err
	}
	in, ok := c.Inner.(Into)
	if !ok {
		return errNoInto
	}
	return in.DecodeInto(b, dst)
}

func (c LimitCodec[V]) check(b []byte) error {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return nil
}
