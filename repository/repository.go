// Package repository stores typed records as flat field maps in a key-value
// backend: one hash per record at "<keyspace>:<id>" plus an index set at
// "<keyspace>" listing known ids.
//
// Fields are mapped with the `kv` struct tag. The "id" field is required;
// a positive "ttl" field (seconds) expires the record.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

const (
	tagName  = "kv"
	idField  = "id"
	ttlField = "ttl"
)

var (
	ErrMissingID = errors.New("repository: record has no id")
	ErrKeyspace  = errors.New("repository: keyspace is required")
)

// Backend is the storage contract a repository needs.
type Backend interface {
	// Put replaces the record's fields and adds id to the keyspace index.
	// ttl <= 0 keeps the record until deleted.
	Put(ctx context.Context, keyspace, id string, fields map[string]string, ttl time.Duration) error
	Get(ctx context.Context, keyspace, id string) (map[string]string, bool, error)
	Delete(ctx context.Context, keyspace, id string) error
	// IDs lists the index; it may contain ids whose record already expired.
	IDs(ctx context.Context, keyspace string) ([]string, error)
	// Unindex removes ids from the index only.
	Unindex(ctx context.Context, keyspace string, ids ...string) error
}

// Repository is a typed view over one keyspace.
type Repository[T any] struct {
	backend  Backend
	keyspace string
}

func New[T any](backend Backend, keyspace string) (*Repository[T], error) {
	if keyspace == "" {
		return nil, ErrKeyspace
	}
	if backend == nil {
		return nil, errors.New("repository: backend is required")
	}
	return &Repository[T]{backend: backend, keyspace: keyspace}, nil
}

func (r *Repository[T]) Keyspace() string { return r.keyspace }

func (r *Repository[T]) Save(ctx context.Context, v T) error {
	fields, err := ToFields(v)
	if err != nil {
		return err
	}
	id := fields[idField]
	if id == "" {
		return ErrMissingID
	}
	ttl, err := ttlOf(fields)
	if err != nil {
		return err
	}
	if err := r.backend.Put(ctx, r.keyspace, id, fields, ttl); err != nil {
		return fmt.Errorf("repository: save %s:%s: %w", r.keyspace, id, err)
	}
	return nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	fields, ok, err := r.backend.Get(ctx, r.keyspace, id)
	if err != nil {
		return zero, false, fmt.Errorf("repository: find %s:%s: %w", r.keyspace, id, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, err := FromFields[T](fields)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (r *Repository[T]) DeleteByID(ctx context.Context, id string) error {
	if err := r.backend.Delete(ctx, r.keyspace, id); err != nil {
		return fmt.Errorf("repository: delete %s:%s: %w", r.keyspace, id, err)
	}
	return nil
}

// FindAll returns every live record. Index entries whose record expired are
// pruned on the way.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	ids, err := r.backend.IDs(ctx, r.keyspace)
	if err != nil {
		return nil, fmt.Errorf("repository: list %s: %w", r.keyspace, err)
	}
	out := make([]T, 0, len(ids))
	var stale []string
	for _, id := range ids {
		v, ok, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			stale = append(stale, id)
			continue
		}
		out = append(out, v)
	}
	if len(stale) > 0 {
		if err := r.backend.Unindex(ctx, r.keyspace, stale...); err != nil {
			return nil, fmt.Errorf("repository: prune %s: %w", r.keyspace, err)
		}
	}
	return out, nil
}

func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	all, err := r.FindAll(ctx)
	return len(all), err
}

// ToFields flattens v into string fields using the `kv` tag. Nested
// structs are not supported.
func ToFields(v any) (map[string]string, error) {
	var raw map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: tagName,
		Result:  &raw,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("repository: flatten %T: %w", v, err)
	}

	out := make(map[string]string, len(raw))
	for k, fv := range raw {
		s, err := cast.ToStringE(fv)
		if err != nil {
			return nil, fmt.Errorf("repository: field %q: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

// FromFields rebuilds a T from string fields, converting numbers and bools
// from their string form.
func FromFields[T any](fields map[string]string) (T, error) {
	var v T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		WeaklyTypedInput: true,
		Result:           &v,
	})
	if err != nil {
		return v, err
	}
	if err := dec.Decode(fields); err != nil {
		return v, fmt.Errorf("repository: decode %T: %w", v, err)
	}
	return v, nil
}

func ttlOf(fields map[string]string) (time.Duration, error) {
	s, ok := fields[ttlField]
	if !ok || s == "" {
		return 0, nil
	}
	secs, err := cast.ToInt64E(s)
	if err != nil {
		return 0, fmt.Errorf("repository: ttl field: %w", err)
	}
	if secs <= 0 {
		return 0, nil
	}
	return time.Duration(secs) * time.Second, nil
}

func recordKey(keyspace, id string) string { return keyspace + ":" + id }
