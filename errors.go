package cachefront

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/cachefront/internal/util"
)

var (
	ErrEmptyKey    = util.ErrEmptyKey
	ErrKeyTooLong  = util.ErrKeyTooLong
	ErrKeyEncoding = util.ErrKeyEncoding
	ErrKeyControl  = util.ErrKeyControl

	// ErrStoreRejected is wrapped by a *StoreError when the store refuses a
	// Put under memory pressure.
	ErrStoreRejected = errors.New("store rejected write")

	ErrNilLoader = errors.New("nil loader")
)

// Store operations reported in StoreError.Op.
const (
	OpGet         = "get"
	OpSet         = "set"
	OpDel         = "del"
	OpGenSnapshot = "gen_snapshot"
	OpGenBump     = "gen_bump"
)

// InvalidKeyError is returned before any store call for keys that are empty,
// longer than util.MaxKeyLen, not UTF-8 or contain control characters.
type InvalidKeyError struct {
	Key string
	Err error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("cachefront: invalid key %q: %v", shortKey(e.Key), e.Err)
}

func (e *InvalidKeyError) Unwrap() error { return e.Err }

// StoreError reports a failed store or generation store call.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cachefront: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// LoadError wraps a loader failure. All callers collapsed into the same load
// receive the same *LoadError.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cachefront: load %q: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CodecError reports a value that could not be encoded.
type CodecError struct {
	Key string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("cachefront: encode %q: %v", e.Key, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// EvictError is returned only when both the generation bump and the delete
// failed, i.e. the old entry may still be served.
type EvictError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *EvictError) Error() string {
	return fmt.Sprintf("cachefront: evict %q failed: bump=%v; delete=%v", e.Key, e.BumpErr, e.DelErr)
}

func (e *EvictError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}

func shortKey(k string) string {
	const max = 64
	if len(k) <= max {
		return k
	}
	return k[:max] + "..."
}
