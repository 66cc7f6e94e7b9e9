package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// NewStore constructs a fresh, empty store for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

// RunConformance checks the storage.Store contract for CID-addressed
// backends.
func RunConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte(`{"title":"hello, anchor storage"}`)

		h, err := s.Put(ctx, want, storage.Tags{"Content-Type": "application/json"})
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if string(h) != cidutil.String(want) {
			t.Fatalf("Put handle mismatch: got %s want %s", h, cidutil.String(want))
		}

		got, err := s.Get(ctx, h)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if s.URL(h) == "" {
			t.Fatalf("URL empty for stored handle")
		}
		if s.Kind() == "" {
			t.Fatalf("Kind empty")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same bytes")

		h1, err := s.Put(ctx, b, nil)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		h2, err := s.Put(ctx, b, nil)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if h1 != h2 {
			t.Fatalf("Put not idempotent: %s vs %s", h1, h2)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t)
		h := storage.Handle(cidutil.String([]byte("missing")))
		if _, err := s.Get(ctx, h); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("RejectEmptyHandle", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, ""); err == nil {
			t.Fatalf("Get should fail for empty handle")
		}
	})
}
