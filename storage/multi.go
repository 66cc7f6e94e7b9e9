package storage

import (
	"context"
	"errors"
)

// MultiStore provides deterministic, ordered fallback across multiple stores.
//
// Read order is the slice order in Stores; callers MUST supply a fixed order.
// Put writes only to the first store, and URL and Kind report the first
// store as well.
type MultiStore struct {
	Stores []Store
}

var _ Store = MultiStore{}

func (m MultiStore) Put(ctx context.Context, data []byte, tags Tags) (Handle, error) {
	if len(m.Stores) == 0 {
		return "", errors.New("storage: MultiStore has no stores")
	}
	return m.Stores[0].Put(ctx, data, tags)
}

// Get tries each store in order. A not-found result moves on to the next
// store; any other error stops the search.
func (m MultiStore) Get(ctx context.Context, h Handle) ([]byte, error) {
	for _, s := range m.Stores {
		b, err := s.Get(ctx, h)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			log.Debugf("%s: %s not found, trying next store", s.Kind(), h)
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiStore) URL(h Handle) string {
	if len(m.Stores) == 0 {
		return ""
	}
	return m.Stores[0].URL(h)
}

func (m MultiStore) Kind() string {
	if len(m.Stores) == 0 {
		return ""
	}
	return m.Stores[0].Kind()
}
