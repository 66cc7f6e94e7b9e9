package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/decred/slog"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fields(r Report) []string {
	out := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		out[i] = p.Field
	}
	return out
}

func hasField(r Report, field string) bool {
	for _, p := range r.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", env(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ParsedNetwork() != ledger.Preprod {
		t.Fatalf("network = %q", cfg.Network)
	}
	if cfg.Anchor.Label != anchor.DefaultLabel {
		t.Fatalf("label = %d", cfg.Anchor.Label)
	}
	if got := cfg.RetryPolicy(); got != anchor.DefaultRetry {
		t.Fatalf("retry = %+v", got)
	}
	if cfg.InputSelection() != anchor.SelectAll {
		t.Fatalf("selection = %v", cfg.InputSelection())
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Fatalf("log level = %v", cfg.LogLevel())
	}
	if cfg.BlockfrostTimeout() != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.BlockfrostTimeout())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "anchor.yaml", `
network: preview
ledger:
  kind: devnet
  devnet:
    path: /tmp/devnet
anchor:
  metadata_label: 674
  input_selection: largest-first
  retry:
    attempts: 5
    backoff: 100ms
    max_backoff: 1s
storage:
  write_policy: all
  backends:
    - name: localfs
      config: {localfs-dir: /tmp/a}
    - name: ipfs
      id: node
      config: {ipfs-path: /tmp/ipfs}
log:
  level: debug
`)
	cfg, err := Load(path, env(map[string]string{
		EnvMetadataLabel: "1999",
		EnvLogLevel:      "warn",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ParsedNetwork() != ledger.Preview || cfg.Ledger.Kind != LedgerDevnet || cfg.Ledger.Devnet.Path != "/tmp/devnet" {
		t.Fatalf("ledger settings not loaded: %+v", cfg)
	}
	if cfg.Anchor.Label != 1999 {
		t.Fatalf("env label did not override file: %d", cfg.Anchor.Label)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Fatalf("log level = %v", cfg.LogLevel())
	}
	want := anchor.Retry{Attempts: 5, Backoff: 100 * time.Millisecond, MaxBackoff: time.Second}
	if got := cfg.RetryPolicy(); got != want {
		t.Fatalf("retry = %+v want %+v", got, want)
	}
	if cfg.InputSelection() != anchor.SelectLargestFirst {
		t.Fatalf("selection = %v", cfg.InputSelection())
	}
	if len(cfg.Storage.Backends) != 2 || cfg.Storage.Backends[1].ID != "node" {
		t.Fatalf("backends = %+v", cfg.Storage.Backends)
	}
}

func TestLoad_FileWithoutStorageKeepsDefaultBackend(t *testing.T) {
	path := writeFile(t, "anchor.yaml", "network: mainnet\n")
	cfg, err := Load(path, env(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Storage.Backends) != 1 || cfg.Storage.Backends[0].Name != "localfs" {
		t.Fatalf("backends = %+v", cfg.Storage.Backends)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil)); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := writeFile(t, "bad.yaml", "network: [\n")
	if _, err := Load(bad, env(nil)); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
	if _, err := Load("", env(map[string]string{EnvMetadataLabel: "abc"})); err == nil {
		t.Fatalf("expected error for non-numeric label")
	}
}

func TestPath(t *testing.T) {
	e := env(map[string]string{EnvConfig: "/etc/anchor.yaml"})
	if got := Path("", e); got != "/etc/anchor.yaml" {
		t.Fatalf("Path from env = %q", got)
	}
	if got := Path("local.yaml", e); got != "local.yaml" {
		t.Fatalf("flag should win, got %q", got)
	}
}

func TestValidate_Anchor(t *testing.T) {
	key := writeFile(t, "payment.skey", "{}")
	cfg, err := Load("", env(map[string]string{
		EnvBlockfrostKey: "preprodABCDEF",
		EnvKeyFile:       key,
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r := cfg.Validate(OpAnchor); !r.OK() {
		t.Fatalf("unexpected problems: %v", r.Err())
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Network = "testnet"
	cfg.Key.File = filepath.Join(t.TempDir(), "absent.skey")
	cfg.Anchor.Label = 0
	cfg.Anchor.Selection = "smallest"
	cfg.Anchor.Retry = RetryConfig{Attempts: 0, Backoff: "soon", MaxBackoff: "-1s"}
	cfg.Storage.Backends = nil
	cfg.Log.Level = "loud"

	r := cfg.Validate(OpAnchor)
	want := []string{
		"anchor.input_selection",
		"anchor.metadata_label",
		"anchor.retry.attempts",
		"anchor.retry.backoff",
		"anchor.retry.max_backoff",
		"key.file",
		"ledger.blockfrost.project_id",
		"log.level",
		"network",
		"storage",
	}
	if got := fields(r); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("fields = %v\nwant     %v", got, want)
	}
	var re *ReportError
	if err := r.Err(); !errors.As(err, &re) || !strings.HasPrefix(err.Error(), "config: anchor.input_selection") {
		t.Fatalf("Err() = %v", err)
	}
}

func TestValidate_ProjectNetworkMismatch(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Blockfrost.ProjectID = "mainnetXYZ"
	if r := cfg.Validate(OpVerify); !hasField(r, "ledger.blockfrost.project_id") {
		t.Fatalf("expected project id problem, got %v", fields(r))
	}
	cfg.Ledger.Blockfrost.ProjectID = "legacyprojectid"
	if r := cfg.Validate(OpVerify); !r.OK() {
		t.Fatalf("unprefixed ids are accepted, got %v", r.Err())
	}
}

func TestValidate_PerOperation(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Kind = LedgerDevnet
	cfg.Key.File = ""
	cfg.Anchor.Selection = "bogus"

	// Verify needs neither a key nor an input selection.
	if r := cfg.Validate(OpVerify); !r.OK() {
		t.Fatalf("verify: %v", r.Err())
	}
	if r := cfg.Validate(OpStatus); !hasField(r, "key.file") {
		t.Fatalf("status should require a key, got %v", fields(r))
	}

	cfg.Ledger.Kind = "cardano-node"
	if r := cfg.Validate(OpStore); !r.OK() {
		t.Fatalf("store commands ignore the ledger: %v", r.Err())
	}
	if r := cfg.Validate(OpVerify); !hasField(r, "ledger.kind") {
		t.Fatalf("expected ledger.kind problem, got %v", fields(r))
	}
}

func TestValidate_DevnetParams(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Kind = LedgerDevnet
	p := ledger.DefaultParams
	p.MaxTxSize = 0
	cfg.Ledger.Devnet.Params = &p
	if r := cfg.Validate(OpVerify); !hasField(r, "ledger.devnet.params") {
		t.Fatalf("expected params problem, got %v", fields(r))
	}
}

func TestKeyFile(t *testing.T) {
	cfg := Default()
	cfg.Key.File = ""
	if _, err := cfg.KeyFile(); err == nil {
		t.Fatalf("expected error for empty key file")
	}
}
