package testkit

import (
	"context"
	"errors"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

func TestMemStore_Conformance(t *testing.T) {
	RunConformance(t, func(t *testing.T) storage.Store { return NewMemStore() })
}

func TestMemStore_TamperIsReturnedVerbatim(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	h, err := m.Put(ctx, []byte("original"), storage.Tags{"App-Name": "x"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	m.Tamper(h, []byte("tampered"))
	got, err := m.Get(ctx, h)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "tampered" {
		t.Fatalf("got %q", got)
	}
	if m.Tags(h)["App-Name"] != "x" {
		t.Fatalf("tags not recorded")
	}

	m.Delete(h)
	if _, err := m.Get(ctx, h); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("after Delete: %v", err)
	}
	if m.Puts() != 1 || m.Gets() != 2 {
		t.Fatalf("puts=%d gets=%d", m.Puts(), m.Gets())
	}
}
