package storage

import (
	"context"
	"errors"
)

// Store is a string key/value store that outlives the process.
// Consumers define what they keep in it; the store only moves strings.
//
// A key that was never saved (or was removed) is reported by Load as
// ok == false with a nil error. Errors are reserved for backend failures.
type Store interface {
	Save(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Remove(ctx context.Context, key string) error
}

var ErrEmptyKey = errors.New("storage: empty key")

// Namespace returns a Store that prefixes every key with prefix + ":".
func Namespace(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &namespaced{inner: s, prefix: prefix + ":"}
}

type namespaced struct {
	inner  Store
	prefix string
}

func (n *namespaced) Save(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.inner.Save(ctx, n.prefix+key, value)
}

func (n *namespaced) Load(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	return n.inner.Load(ctx, n.prefix+key)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.inner.Remove(ctx, n.prefix+key)
}
