package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

type nopStore struct{ dir string }

func (nopStore) Put(context.Context, []byte, storage.Tags) (storage.Handle, error) {
	return "", storage.ErrReadOnly
}

func (nopStore) Get(context.Context, storage.Handle) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func (nopStore) URL(h storage.Handle) string { return string(h) }

func (nopStore) Kind() string { return "nop" }

func init() {
	MustRegister(Backend{
		Name:        "test-nop",
		Description: "registry test backend",
		Usage:       UsageCLI,
		Keys:        []Key{{Name: "dir", Required: true}, {Name: "extra"}},
		Open: func(cfg map[string]string) (storage.Store, func() error, error) {
			return nopStore{dir: cfg["dir"]}, nil, nil
		},
	})
}

func TestRegister_Validation(t *testing.T) {
	if err := Register(Backend{}); err == nil {
		t.Fatalf("expected error for empty backend")
	}
	if err := Register(Backend{Name: "x", Usage: UsageCLI}); err == nil {
		t.Fatalf("expected error for missing Open")
	}
	err := Register(Backend{Name: "test-nop", Usage: UsageCLI, Open: func(map[string]string) (storage.Store, func() error, error) {
		return nil, nil, nil
	}})
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, _, err := Open("test-nop", UsageCLI, map[string]string{"dir": "/tmp/x"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.(nopStore).dir; got != "/tmp/x" {
		t.Fatalf("dir = %q", got)
	}

	tests := []struct {
		name  string
		usage Usage
		cfg   map[string]string
		want  string
	}{
		{"missing required", UsageCLI, nil, "missing"},
		{"unknown key", UsageCLI, map[string]string{"dir": "d", "dri": "d"}, "unknown key"},
		{"wrong usage", UsageDaemon, map[string]string{"dir": "d"}, "not supported"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Open("test-nop", tc.usage, tc.cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
	if _, _, err := Open("nope", UsageCLI, nil); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestNames_FiltersByUsage(t *testing.T) {
	found := false
	for _, n := range Names(UsageCLI) {
		if n == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Fatalf("test-nop missing from CLI names")
	}
	for _, n := range Names(UsageDaemon) {
		if n == "test-nop" {
			t.Fatalf("test-nop listed for daemon usage")
		}
	}
}
