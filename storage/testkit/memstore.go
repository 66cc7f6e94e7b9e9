// Package testkit provides an in-memory store and a conformance suite for
// storage backends.
package testkit

import (
	"context"
	"sync"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// MemStore is an in-memory, CID-addressed store.
//
// Like a public gateway, Get returns whatever bytes are held for a handle
// without re-hashing them, so Tamper can simulate content that changed after
// it was anchored.
type MemStore struct {
	mu      sync.Mutex
	objects map[storage.Handle][]byte
	tags    map[storage.Handle]storage.Tags
	puts    int
	gets    int

	// FailGet, when set, is returned by every Get.
	FailGet error
}

var _ storage.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		objects: map[storage.Handle][]byte{},
		tags:    map[storage.Handle]storage.Tags{},
	}
}

func (m *MemStore) Put(ctx context.Context, data []byte, tags storage.Tags) (storage.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := storage.Handle(cidutil.String(data))
	if h == "" {
		return "", storage.ErrInvalidHandle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[h] = append([]byte(nil), data...)
	cp := make(storage.Tags, len(tags))
	for k, v := range tags {
		cp[k] = v
	}
	m.tags[h] = cp
	return h, nil
}

func (m *MemStore) Get(ctx context.Context, h storage.Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	if h == "" {
		return nil, storage.ErrInvalidHandle
	}
	b, ok := m.objects[h]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemStore) URL(h storage.Handle) string { return "mem://" + string(h) }

func (m *MemStore) Kind() string { return "memory" }

// Tamper replaces the bytes held for h.
func (m *MemStore) Tamper(h storage.Handle, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[h] = append([]byte(nil), data...)
}

// Delete drops h.
func (m *MemStore) Delete(h storage.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, h)
	delete(m.tags, h)
}

// Tags returns the tags recorded by the last Put of h.
func (m *MemStore) Tags(h storage.Handle) storage.Tags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tags[h]
}

// Puts returns the number of Put calls.
func (m *MemStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Gets returns the number of Get calls.
func (m *MemStore) Gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}
