package codec

import "encoding/json"

// JSON is the default codec. The zero value is ready to use.
type JSON[V any] struct{}

var (
	_ Codec[struct{}] = JSON[struct{}]{}
	_ Into            = JSON[struct{}]{}
)

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

func (JSON[V]) DecodeInto(b []byte, dst any) error { return json.Unmarshal(b, dst) }
