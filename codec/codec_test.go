package codec

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type item struct {
	ID    string `json:"id" cbor:"id" msgpack:"id"`
	Name  string `json:"name" cbor:"name" msgpack:"name"`
	Price int    `json:"price" cbor:"price" msgpack:"price"`
}

func TestStructCodecs(t *testing.T) {
	in := item{ID: "P001", Name: "example", Price: 1000}
	for _, name := range []string{NameJSON, NameCBOR, NameMsgpack} {
		t.Run(name, func(t *testing.T) {
			c, err := ForName[item](name)
			if err != nil {
				t.Fatalf("ForName: %v", err)
			}
			b, err := c.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if out != in {
				t.Fatalf("got %+v want %+v", out, in)
			}
		})
	}
}

func TestForNameUnknown(t *testing.T) {
	if _, err := ForName[item]("yaml"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
	if c, err := ForName[item](" JSON "); err != nil {
		t.Fatalf("names are case-insensitive: %v", err)
	} else if _, ok := c.(JSON[item]); !ok {
		t.Fatalf("got %T", c)
	}
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	first, err := c.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		b, _ := c.Encode(m)
		if !bytes.Equal(b, first) {
			t.Fatalf("deterministic encoding differs on run %d", i)
		}
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("P001"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if out.GetValue() != "P001" {
		t.Fatalf("got %q", out.GetValue())
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("want ErrTooLarge, got %v", err)
	}
	if s, err := c.Decode([]byte("1234")); err != nil || s != "1234" {
		t.Fatalf("got %q, %v", s, err)
	}
	if s, err := (Limit[string]{Inner: String{}}).Decode([]byte("unbounded")); err != nil || s != "unbounded" {
		t.Fatalf("MaxDecode 0 must disable the limit: %q, %v", s, err)
	}
}

func TestBytesIdentity(t *testing.T) {
	in := []byte{0, 1, 2, 0xff}
	b, _ := Bytes{}.Encode(in)
	out, _ := Bytes{}.Decode(b)
	if !bytes.Equal(in, out) {
		t.Fatalf("got %v", out)
	}
}
