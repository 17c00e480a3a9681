package bolt

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"time"

	bbolt "go.etcd.io/bbolt"

	st "github.com/unkn0wn-root/cachefront/store"
)

var defaultBucket = []byte("cachefront")

// Store persists records in a single bbolt bucket so a process restart keeps
// its cache. Each value is prefixed with 8 bytes of big-endian expiry (unix
// nanos, 0 = none); expired values read as misses and are removed by Sweep.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	now    func() time.Time
	closed atomic.Bool
}

var _ st.Store = (*Store)(nil)

type Options struct {
	Bucket      string
	OpenTimeout time.Duration // 0 => 1s
}

// Open creates or opens the database file at path.
func Open(path string, opts Options) (*Store, error) {
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bucket := defaultBucket
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, bucket: bucket, now: time.Now}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, st.ErrClosed
	}
	var (
		out   []byte
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if len(v) < 8 || s.expired(v) {
			return nil
		}
		// bbolt memory is only valid inside the transaction
		out = append([]byte{}, v[8:]...)
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return out, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if s.closed.Load() {
		return false, st.ErrClosed
	}
	var exp int64
	if ttl > 0 {
		exp = s.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(exp))
	copy(buf[8:], value)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	if s.closed.Load() {
		return st.ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Sweep deletes expired values and returns how many were removed.
func (s *Store) Sweep(_ context.Context) (int, error) {
	if s.closed.Load() {
		return 0, st.ErrClosed
	}
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var dead [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			if len(v) < 8 || s.expired(v) {
				dead = append(dead, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range dead {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(dead)
		return nil
	})
	return removed, err
}

func (s *Store) Close(_ context.Context) error {
	if s == nil || s.db == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) expired(v []byte) bool {
	exp := int64(binary.BigEndian.Uint64(v[:8]))
	return exp > 0 && s.now().UnixNano() > exp
}
