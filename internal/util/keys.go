package util

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// MaxKeyLen bounds user keys. Redis allows much more, but keys this long are
// almost always a bug in the caller's key builder.
const MaxKeyLen = 1024

var (
	ErrEmptyKey    = errors.New("key is empty")
	ErrKeyTooLong  = errors.New("key exceeds maximum length")
	ErrKeyEncoding = errors.New("key is not valid UTF-8")
	ErrKeyControl  = errors.New("key contains control characters")
)

// ValidateKey reports why key cannot be used, or nil.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case len(key) > MaxKeyLen:
		return ErrKeyTooLong
	case !utf8.ValidString(key):
		return ErrKeyEncoding
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return ErrKeyControl
		}
	}
	return nil
}

// StorageKey isolates a user key inside a namespace: "<prefix>:<ns>:<key>".
func StorageKey(prefix, ns, key string) string {
	return prefix + ":" + ns + ":" + key
}
