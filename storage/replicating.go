package storage

import (
	"context"
	"fmt"
)

// NamedStore associates a Store with a stable backend name.
//
// This is used for multi-backend orchestration where callers need to retain
// per-backend results for reporting.
type NamedStore struct {
	Name  string
	Store Store
}

// ReplicatingStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require every
// returned handle to match the first one (otherwise ErrHandleMismatch is
// returned). Use PutAll when you need the per-backend handle mapping.
type ReplicatingStore struct {
	Backends []NamedStore
}

var _ Store = (*ReplicatingStore)(nil)

// PutAll writes the same bytes to all backends.
//
// It returns the handle reported by the first backend and a map of backend
// name to returned handle.
func (r ReplicatingStore) PutAll(ctx context.Context, data []byte, tags Tags) (Handle, map[string]Handle, error) {
	if len(r.Backends) == 0 {
		return "", nil, fmt.Errorf("storage: ReplicatingStore has no backends")
	}

	var want Handle
	out := make(map[string]Handle, len(r.Backends))
	for i, b := range r.Backends {
		if b.Store == nil {
			return "", nil, fmt.Errorf("storage: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(ctx, data, tags)
		if err != nil {
			return "", out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if i == 0 {
			want = got
			continue
		}
		if got != want {
			return "", out, ErrHandleMismatch
		}
	}
	log.Debugf("replicated %s to %d backends", want, len(out))
	return want, out, nil
}

func (r ReplicatingStore) Put(ctx context.Context, data []byte, tags Tags) (Handle, error) {
	h, _, err := r.PutAll(ctx, data, tags)
	return h, err
}

func (r ReplicatingStore) Get(ctx context.Context, h Handle) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(ctx, h)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingStore) URL(h Handle) string {
	for _, b := range r.Backends {
		if b.Store != nil {
			return b.Store.URL(h)
		}
	}
	return ""
}

func (r ReplicatingStore) Kind() string {
	for _, b := range r.Backends {
		if b.Store != nil {
			return b.Store.Kind()
		}
	}
	return ""
}
