package storeconfig_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/localfs"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/storeconfig"
)

func twoLocal(t *testing.T, policy string) (storeconfig.Config, string, string) {
	t.Helper()
	a, b := t.TempDir(), t.TempDir()
	return storeconfig.Config{
		WritePolicy: policy,
		Backends: []storeconfig.BackendConfig{
			{Name: localfs.Kind, ID: "primary", Config: map[string]string{"localfs-dir": a}},
			{Name: localfs.Kind, ID: "mirror", Config: map[string]string{"localfs-dir": b}},
		},
	}, a, b
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  storeconfig.Config
		want string
	}{
		{"empty", storeconfig.Config{}, "at least one backend"},
		{"unnamed", storeconfig.Config{Backends: []storeconfig.BackendConfig{{}}}, "name is required"},
		{"duplicate", storeconfig.Config{Backends: []storeconfig.BackendConfig{{Name: "localfs"}, {Name: "localfs"}}}, "duplicate backend id"},
		{"policy", storeconfig.Config{WritePolicy: "some", Backends: []storeconfig.BackendConfig{{Name: "localfs"}}}, "invalid write_policy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stores.yaml")
	body := "write_policy: all\nbackends:\n  - name: localfs\n    id: a\n    config: {localfs-dir: " + dir + "}\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := storeconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.WritePolicy != "all" || len(cfg.Backends) != 1 || cfg.Backends[0].ID != "a" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := storeconfig.LoadFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpen_FirstPolicyWritesPrimaryOnly(t *testing.T) {
	cfg, _, mirrorDir := twoLocal(t, "")
	o, err := cfg.Open(registry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer o.Close()
	if _, ok := o.Store.(storage.MultiStore); !ok {
		t.Fatalf("store = %T, want MultiStore", o.Store)
	}

	ctx := context.Background()
	h, err := o.Store.Put(ctx, []byte("payload"), nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	mirror, err := localfs.New(mirrorDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mirror.Get(ctx, h); !storage.IsNotFound(err) {
		t.Fatalf("mirror should not hold %s, got %v", h, err)
	}
	if got, err := o.Store.Get(ctx, h); err != nil || string(got) != "payload" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestOpen_AllPolicyReplicates(t *testing.T) {
	cfg, _, mirrorDir := twoLocal(t, "all")
	o, err := cfg.Open(registry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer o.Close()

	ctx := context.Background()
	h, err := o.Store.Put(ctx, []byte("payload"), nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	mirror, err := localfs.New(mirrorDir)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := mirror.Get(ctx, h); err != nil || string(got) != "payload" {
		t.Fatalf("mirror Get = %q, %v", got, err)
	}
}

func TestOpen_PreferredBackendReceivesWrites(t *testing.T) {
	cfg, _, mirrorDir := twoLocal(t, "")
	o, err := cfg.Open(registry.UsageCLI, "mirror")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer o.Close()
	if o.Backends[0].Name != "mirror" {
		t.Fatalf("order = %v", o.Backends)
	}

	ctx := context.Background()
	h, err := o.Store.Put(ctx, []byte("x"), nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	mirror, err := localfs.New(mirrorDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mirror.Get(ctx, h); err != nil {
		t.Fatalf("preferred backend missing %s: %v", h, err)
	}

	if _, err := cfg.Open(registry.UsageCLI, "elsewhere"); err == nil {
		t.Fatalf("expected error for unknown preferred backend")
	}
}

func TestOpen_Errors(t *testing.T) {
	unknown := storeconfig.Config{Backends: []storeconfig.BackendConfig{{Name: "nope"}}}
	if _, err := unknown.Open(registry.UsageCLI, ""); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	missing := storeconfig.Config{Backends: []storeconfig.BackendConfig{{Name: localfs.Kind}}}
	if _, err := missing.Open(registry.UsageCLI, ""); err == nil {
		t.Fatalf("expected error for missing localfs-dir")
	}
}

func TestOpened_Resolver(t *testing.T) {
	cfg, _, _ := twoLocal(t, "")
	o, err := cfg.Open(registry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer o.Close()
	r := o.Resolver()
	s, err := r.Resolve(localfs.Kind)
	if err != nil || s != o.Backends[0].Store {
		t.Fatalf("Resolve(localfs) = %v, %v", s, err)
	}
	if s, err := r.Resolve(""); err != nil || s.Kind() != localfs.Kind {
		t.Fatalf("records without a kind use the default store, got %v, %v", s, err)
	}
	if _, err := r.Resolve("arweave"); !errors.Is(err, storage.ErrNoBackend) {
		t.Fatalf("Resolve(arweave) = %v, want ErrNoBackend", err)
	}
}
