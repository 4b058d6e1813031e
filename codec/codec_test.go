package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type profile struct {
	Name  string `json:"name" cbor:"name" msgpack:"name"`
	Score int    `json:"score" cbor:"score" msgpack:"score"`
}

func roundTrip[V any](t *testing.T, c Codec[V], v V) V {
	t.Helper()
	b, err := c.Encode(v)
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	return got
}

func TestStructCodecsRoundTrip(t *testing.T) {
	v := profile{Name: "Ada", Score: 7}
	assert.Equal(t, v, roundTrip[profile](t, JSON[profile]{}, v))
	assert.Equal(t, v, roundTrip[profile](t, Msgpack[profile]{}, v))
	assert.Equal(t, v, roundTrip[profile](t, MustCBOR[profile](false), v))
	assert.Equal(t, v, roundTrip[profile](t, MustCBOR[profile](true), v))
}

func TestRawCodecs(t *testing.T) {
	assert.Equal(t, "A", roundTrip[string](t, String{}, "A"))
	assert.Equal(t, []byte{1, 2}, roundTrip[[]byte](t, Bytes{}, []byte{1, 2}))
}

func TestProtobufCodec(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	got := roundTrip[*wrapperspb.StringValue](t, c, wrapperspb.String("hello"))
	assert.True(t, proto.Equal(wrapperspb.String("hello"), got))

	_, err := c.Encode(nil)
	assert.Error(t, err, "nil message")

	b, err := c.Encode(wrapperspb.String("into"))
	require.NoError(t, err)
	dst := &wrapperspb.StringValue{}
	require.NoError(t, c.DecodeInto(b, dst))
	assert.Equal(t, "into", dst.GetValue())
	assert.Error(t, c.DecodeInto(b, &profile{}))

	_, err = Protobuf[*wrapperspb.StringValue]{}.Decode(b)
	assert.Error(t, err, "zero codec has no constructor")
}

func TestBytesDecodeCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	got, err := Bytes{}.Decode(src)
	require.NoError(t, err)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, got)
}

// Generic decode then DecodeInto mirrors how a handle of type any re-hydrates values.
func TestGenericDecodeThenInto(t *testing.T) {
	v := profile{Name: "Ada", Score: 7}
	codecs := map[string]interface {
		Codec[any]
		Into
	}{
		"json":    JSON[any]{},
		"msgpack": Msgpack[any]{},
		"cbor":    MustCBOR[any](false),
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(v)
			require.NoError(t, err)

			generic, err := c.Decode(b)
			require.NoError(t, err)
			m, ok := generic.(map[string]any)
			require.True(t, ok, "generic decode gave %T", generic)
			assert.Equal(t, "Ada", m["name"])

			var typed profile
			require.NoError(t, c.DecodeInto(b, &typed))
			assert.Equal(t, v, typed)
		})
	}
}

func TestLimitCodec(t *testing.T) {
	c := LimitCodec[string]{Inner: String{}, MaxDecode: 3}
	_, err := c.Decode([]byte("abcd"))
	assert.Error(t, err)
	got, err := c.Decode([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	// String has no DecodeInto
	var s string
	assert.ErrorIs(t, c.DecodeInto([]byte("ab"), &s), errNoInto)

	j := LimitCodec[any]{Inner: JSON[any]{}, MaxDecode: 64}
	var p profile
	require.NoError(t, j.DecodeInto([]byte(`{"name":"Bo","score":1}`), &p))
	assert.Equal(t, profile{Name: "Bo", Score: 1}, p)
	assert.Error(t, j.DecodeInto(make([]byte, 65), &p))
}
