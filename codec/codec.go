package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Into is implemented by codecs that can decode into an arbitrary destination.
// bucketcache uses it to re-hydrate generic documents (maps, slices) into a
// concrete registered type. dst must be a non-nil pointer.
type Into interface {
	DecodeInto(b []byte, dst any) error
}
