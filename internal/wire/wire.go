package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version    byte = 1
	kindSingle byte = 1

	headerLen = 4 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cachefront: corrupt entry")
	magic4     = [...]byte{'C', 'F', 'N', 'T'}
)

// Record is a decoded cache entry. ExpiresAt is zero when the entry has no TTL.
// Payload aliases the input buffer passed to Decode.
type Record struct {
	Gen       uint64
	ExpiresAt time.Time
	Payload   []byte
}

// Expired reports whether the record is unreachable at now. An entry is still
// live at exactly ExpiresAt.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames a single entry:
//
//	magic(4) | ver(1) | kind(1=single) | gen(u64 be) | expiresAt(i64 be, unix nanos, 0=none) | vlen(u32 be) | payload(vlen)
func Encode(gen uint64, expiresAt time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindSingle)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	var exp int64
	if !expiresAt.IsZero() {
		exp = expiresAt.UnixNano()
	}
	binary.BigEndian.PutUint64(u8[:], uint64(exp))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses a frame produced by Encode. Trailing bytes are rejected.
func Decode(b []byte) (Record, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindSingle {
		return Record{}, ErrCorrupt
	}

	off := 6
	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	if exp < 0 {
		return Record{}, ErrCorrupt
	}

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off { // strict framing
		return Record{}, ErrCorrupt
	}

	r := Record{Gen: gen, Payload: b[off : off+vlen]}
	if exp > 0 {
		r.ExpiresAt = time.Unix(0, exp)
	}
	return r, nil
}
