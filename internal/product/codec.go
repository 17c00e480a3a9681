package product

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/cachefront/codec"
)

// CodecProtobuf selects ProtoCodec in configuration.
const CodecProtobuf = "protobuf"

// ProtoCodec stores products as google.protobuf.Struct messages.
type ProtoCodec struct {
	pb codec.Protobuf[*structpb.Struct]
}

var _ codec.Codec[Product] = ProtoCodec{}

func NewProtoCodec() ProtoCodec {
	return ProtoCodec{pb: codec.NewProtobuf(func() *structpb.Struct { return new(structpb.Struct) })}
}

func (c ProtoCodec) Encode(p Product) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"price": p.Price,
		"ttl":   p.TTL,
	})
	if err != nil {
		return nil, err
	}
	return c.pb.Encode(s)
}

func (c ProtoCodec) Decode(b []byte) (Product, error) {
	s, err := c.pb.Decode(b)
	if err != nil {
		return Product{}, err
	}
	f := s.GetFields()
	// numbers travel as doubles; exact up to 2^53
	return Product{
		ID:    f["id"].GetStringValue(),
		Name:  f["name"].GetStringValue(),
		Price: int64(f["price"].GetNumberValue()),
		TTL:   int64(f["ttl"].GetNumberValue()),
	}, nil
}

// Codec resolves a configured codec name, protobuf included.
func Codec(name string) (codec.Codec[Product], error) {
	if name == CodecProtobuf {
		return NewProtoCodec(), nil
	}
	return codec.ForName[Product](name)
}
