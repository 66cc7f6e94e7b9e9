package arweave

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

const txID = "bNbA3TEQVL60xlgCcqdz4ZPHFZ711cZ3hmkpGttDt_U"

func TestStore_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case txID:
			_, _ = w.Write([]byte(`{"title":"T"}`))
		case "pending" + txID[7:]:
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := New(srv.URL)
	got, err := s.Get(ctx, txID)
	if err != nil || string(got) != `{"title":"T"}` {
		t.Fatalf("Get = %q, %v", got, err)
	}
	other := storage.Handle(strings.Repeat("A", 43))
	if _, err := s.Get(ctx, other); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, storage.Handle("pending"+txID[7:])); err == nil || storage.IsNotFound(err) {
		t.Fatalf("expected pending error, got %v", err)
	}
	if _, err := s.Get(ctx, "short"); !errors.Is(err, storage.ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}
	if _, err := s.Put(ctx, []byte("x"), nil); !errors.Is(err, storage.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if s.URL(txID) != srv.URL+"/"+txID {
		t.Fatalf("URL = %q", s.URL(txID))
	}
}
