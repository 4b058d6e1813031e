package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNilMessage = errors.New("codec: nil protobuf message")

// Protobuf stores a concrete message type. ctor builds the empty message a
// payload is decoded into, e.g. func() *mypb.User { return &mypb.User{} }.
type Protobuf[T proto.Message] struct {
	ctor func() T
	opts proto.MarshalOptions
}

// NewProtobuf returns a codec with deterministic marshaling, so equal messages
// produce equal stored documents.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor, opts: proto.MarshalOptions{Deterministic: true}}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	if any(v) == nil || !v.ProtoReflect().IsValid() {
		return nil, errNilMessage
	}
	return c.opts.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.ctor == nil {
		var zero T
		return zero, errors.New("codec: protobuf codec built without a constructor")
	}
	m := c.ctor()
	err := proto.Unmarshal(b, m)
	return m, err
}

// DecodeInto unmarshals into dst, which must be a proto.Message.
func (c Protobuf[T]) DecodeInto(b []byte, dst any) error {
	m, ok := dst.(proto.Message)
	if !ok {
		return errors.New("codec: protobuf destination is not a proto.Message")
	}
	return proto.Unmarshal(b, m)
}
