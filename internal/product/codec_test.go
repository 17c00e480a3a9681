package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cachefront/codec"
)

func TestProtoCodecRoundTrip(t *testing.T) {
	c := NewProtoCodec()
	in := Product{ID: "P003", Name: "asal", Price: 100, TTL: 60}

	b, err := c.Encode(in)
	require.NoError(t, err)
	out, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestProtoCodecRejectsGarbage(t *testing.T) {
	_, err := NewProtoCodec().Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestCodecByName(t *testing.T) {
	c, err := Codec(CodecProtobuf)
	require.NoError(t, err)
	assert.IsType(t, ProtoCodec{}, c)

	c, err = Codec("msgpack")
	require.NoError(t, err)
	assert.IsType(t, codec.Msgpack[Product]{}, c)

	_, err = Codec("xml")
	assert.Error(t, err)
}
