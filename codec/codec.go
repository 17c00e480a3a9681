// Package codec converts cached values to and from bytes.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Names accepted by ForName.
const (
	NameJSON    = "json"
	NameCBOR    = "cbor"
	NameMsgpack = "msgpack"
)

// ForName returns the struct codec registered under name (case-insensitive).
// Protobuf needs a message constructor and is built with NewProtobuf instead.
func ForName[V any](name string) (Codec[V], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON[V]{}, nil
	case NameCBOR:
		return NewCBOR[V](false)
	case NameMsgpack:
		return Msgpack[V]{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
