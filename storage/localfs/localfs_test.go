package localfs

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunConformance(t, func(t *testing.T) storage.Store {
		t.Helper()
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return s
	})
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte("original")
	h, err := s.Put(ctx, orig, nil)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path := s.pathFor(h)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := s.Get(ctx, h); !errors.Is(err, storage.ErrHandleMismatch) {
		t.Fatalf("Get mismatch: got %v want %v", err, storage.ErrHandleMismatch)
	}
	if _, err := s.Put(ctx, orig, nil); !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}
	if string(h) != cidutil.String(orig) {
		t.Fatalf("unexpected handle %s", h)
	}
}

func TestLocalFS_InvalidHandleAndURL(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.Get(context.Background(), "not-a-cid"); !errors.Is(err, storage.ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}
	h := storage.Handle(cidutil.String([]byte("x")))
	if u := s.URL(h); !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, string(h)) {
		t.Fatalf("URL = %q", u)
	}
}

func TestLocalFS_Registered(t *testing.T) {
	dir := t.TempDir()
	s, _, err := registry.Open(Kind, registry.UsageCLI, map[string]string{"localfs-dir": dir})
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	if s.Kind() != Kind {
		t.Fatalf("Kind = %q", s.Kind())
	}
}
