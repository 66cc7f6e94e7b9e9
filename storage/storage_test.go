package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/testkit"
)

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) Get(context.Context, storage.Handle) ([]byte, error) { return nil, f.err }

func TestMultiStore_FallsBackOnNotFound(t *testing.T) {
	ctx := context.Background()
	a, b := testkit.NewMemStore(), testkit.NewMemStore()
	h, err := b.Put(ctx, []byte("only in b"), nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	m := storage.MultiStore{Stores: []storage.Store{a, b}}
	got, err := m.Get(ctx, h)
	if err != nil || string(got) != "only in b" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	h2, err := m.Put(ctx, []byte("written"), nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := a.Get(ctx, h2); err != nil {
		t.Fatalf("Put did not write to first store: %v", err)
	}
	if _, err := b.Get(ctx, h2); !storage.IsNotFound(err) {
		t.Fatalf("Put wrote to second store")
	}
}

func TestMultiStore_StopsOnOtherErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	b := testkit.NewMemStore()
	h, _ := b.Put(ctx, []byte("x"), nil)
	m := storage.MultiStore{Stores: []storage.Store{failingStore{Store: testkit.NewMemStore(), err: boom}, b}}
	if _, err := m.Get(ctx, h); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := (storage.MultiStore{}).Put(ctx, []byte("x"), nil); err == nil {
		t.Fatalf("expected error for empty MultiStore")
	}
}

func TestReplicatingStore_PutAll(t *testing.T) {
	ctx := context.Background()
	a, b := testkit.NewMemStore(), testkit.NewMemStore()
	r := storage.ReplicatingStore{Backends: []storage.NamedStore{{Name: "a", Store: a}, {Name: "b", Store: b}}}
	h, per, err := r.PutAll(ctx, []byte("payload"), nil)
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if per["a"] != h || per["b"] != h {
		t.Fatalf("per-backend handles = %v", per)
	}
	for _, s := range []*testkit.MemStore{a, b} {
		if _, err := s.Get(ctx, h); err != nil {
			t.Fatalf("backend missing object: %v", err)
		}
	}
}

type prefixStore struct{ *testkit.MemStore }

func (p prefixStore) Put(ctx context.Context, data []byte, tags storage.Tags) (storage.Handle, error) {
	h, err := p.MemStore.Put(ctx, data, tags)
	return "x" + h, err
}

func TestReplicatingStore_HandleMismatch(t *testing.T) {
	r := storage.ReplicatingStore{Backends: []storage.NamedStore{
		{Name: "a", Store: testkit.NewMemStore()},
		{Name: "b", Store: prefixStore{testkit.NewMemStore()}},
	}}
	if _, err := r.Put(context.Background(), []byte("p"), nil); !errors.Is(err, storage.ErrHandleMismatch) {
		t.Fatalf("expected ErrHandleMismatch, got %v", err)
	}
}

func TestRouter_Resolve(t *testing.T) {
	mem := testkit.NewMemStore()
	other := testkit.NewMemStore()
	r := storage.Router{Stores: map[string]storage.Store{"ipfs": other}, Default: mem}

	if s, err := r.Resolve("ipfs"); err != nil || s != other {
		t.Fatalf("Resolve(ipfs) = %v, %v", s, err)
	}
	if s, err := r.Resolve("memory"); err != nil || s != mem {
		t.Fatalf("Resolve(memory) = %v, %v", s, err)
	}
	if s, err := r.Resolve(""); err != nil || s != mem {
		t.Fatalf("Resolve(\"\") = %v, %v", s, err)
	}
	if _, err := r.Resolve("arweave"); !errors.Is(err, storage.ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}
