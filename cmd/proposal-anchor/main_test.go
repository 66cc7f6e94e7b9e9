package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/model"
)

const testSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

type harness struct {
	t   *testing.T
	dir string
	env map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "anchor.yaml")
	body := "network: preprod\n" +
		"storage:\n" +
		"  backends:\n" +
		"    - name: localfs\n" +
		"      config: {localfs-dir: " + filepath.Join(dir, "store") + "}\n" +
		"log:\n" +
		"  level: off\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &harness{t: t, dir: dir, env: map[string]string{
		config.EnvConfig:     cfgPath,
		config.EnvLedger:     config.LedgerDevnet,
		config.EnvDevnetPath: filepath.Join(dir, "ledger"),
		config.EnvKeyFile:    filepath.Join(dir, "payment.skey"),
	}}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code := runEnv(context.Background(), args, &out, &errOut, func(k string) string { return h.env[k] })
	return code, out.String(), errOut.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run(args...)
	if code != 0 {
		h.t.Fatalf("%s: exit %d\nstdout: %s\nstderr: %s", strings.Join(args, " "), code, out, errOut)
	}
	return out
}

func (h *harness) funded() {
	h.t.Helper()
	h.mustRun("key", "init", "--seed-hex", testSeed)
	h.mustRun("devnet", "fund", "--amount", "50000000")
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"help", []string{"help"}, 0},
		{"anchor without source", []string{"anchor"}, 2},
		{"anchor with two sources", []string{"anchor", "--example", "--stdin"}, 2},
		{"verify without txid", []string{"verify"}, 2},
		{"verify bad txid", []string{"verify", "zz"}, 2},
		{"key without subcommand", []string{"key"}, 2},
		{"unknown flag", []string{"status", "--bogus"}, 2},
		{"bundle without file", []string{"bundle", "verify"}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, _ := h.run(tc.args...); code != tc.want {
				t.Fatalf("exit = %d want %d", code, tc.want)
			}
		})
	}
}

func TestRun_InvalidConfigurationIsUsageError(t *testing.T) {
	h := newHarness(t)
	h.env[config.EnvLedger] = config.LedgerBlockfrost
	code, _, errOut := h.run("verify", strings.Repeat("ab", 32))
	if code != 2 {
		t.Fatalf("exit = %d want 2", code)
	}
	if !strings.Contains(errOut, "ledger.blockfrost.project_id") {
		t.Fatalf("stderr does not name the problem: %s", errOut)
	}
}

func TestRun_KeyInitIsDeterministic(t *testing.T) {
	h := newHarness(t)
	first := decode[keyInfo](t, h.mustRun("key", "init", "--seed-hex", testSeed))
	if !strings.HasPrefix(first.Address, "addr_test1") {
		t.Fatalf("address = %q", first.Address)
	}
	if code, _, _ := h.run("key", "init", "--seed-hex", testSeed); code != 1 {
		t.Fatalf("second init without --force should fail, got %d", code)
	}
	shown := decode[keyInfo](t, h.mustRun("key", "show"))
	if shown.Address != first.Address || shown.KeyHash != first.KeyHash {
		t.Fatalf("show = %+v, init = %+v", shown, first)
	}
}

func TestRun_AnchorVerifyBundle(t *testing.T) {
	h := newHarness(t)
	h.funded()

	bundle := filepath.Join(h.dir, "evidence.tar")
	saved := filepath.Join(h.dir, "result.json")
	out := h.mustRun("anchor", "--example", "--bundle", bundle, "--output", saved)
	res := decode[model.AnchorResult](t, out)
	if len(res.TransactionID) != 64 || len(res.Fingerprint) != 64 {
		t.Fatalf("anchor result = %+v", res)
	}
	if res.MetadataLabel != 1337 || res.StorageKind != "localfs" {
		t.Fatalf("anchor result = %+v", res)
	}
	if b, err := os.ReadFile(saved); err != nil || string(b) != out {
		t.Fatalf("--output file differs from stdout (err %v)", err)
	}

	out = h.mustRun("verify", res.TransactionID, "--show-proposal")
	rep := decode[model.VerificationReport](t, out)
	if !rep.VerificationSuccessful || rep.OnChainHash != res.Fingerprint || rep.ComputedHash != res.Fingerprint {
		t.Fatalf("report = %+v", rep)
	}
	if rep.StorageHandle != res.StorageHandle || len(rep.Proposal) == 0 {
		t.Fatalf("report = %+v", rep)
	}

	br := decode[model.BundleReport](t, h.mustRun("bundle", "verify", bundle))
	if !br.AllMatch || len(br.Anchors) != 1 || br.Anchors[0].TransactionID != res.TransactionID {
		t.Fatalf("bundle report = %+v", br)
	}

	packed := filepath.Join(h.dir, "verified.tar.zst")
	h.mustRun("verify", res.TransactionID, "--bundle", packed)
	br = decode[model.BundleReport](t, h.mustRun("bundle", "verify", packed))
	if !br.AllMatch || len(br.Anchors) != 1 || br.Anchors[0].ComputedHash != res.Fingerprint {
		t.Fatalf("compressed bundle report = %+v", br)
	}
}

func TestRun_AnchorFromStdin(t *testing.T) {
	h := newHarness(t)
	h.funded()

	stdin = strings.NewReader(`{"title":"T","description":"D","proposer":"P"}`)
	defer func() { stdin = os.Stdin }()
	res := decode[model.AnchorResult](t, h.mustRun("anchor", "--stdin"))
	if res.Fingerprint != "7fb7b755490dc11f8f043dafbddc6dcf3c23ced0d74528774fd91cf8b604e416" {
		t.Fatalf("fingerprint = %s", res.Fingerprint)
	}
}

func TestRun_AnchorInvalidProposal(t *testing.T) {
	h := newHarness(t)
	h.funded()

	p := filepath.Join(h.dir, "p.json")
	if err := os.WriteFile(p, []byte(`{"title":"T"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := h.run("anchor", "--file", p)
	if code != 1 || !strings.Contains(errOut, "VALIDATION") {
		t.Fatalf("exit %d, stderr %s", code, errOut)
	}
	if err := os.WriteFile(p, []byte(`[1,2]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := h.run("anchor", "--file", p); code != 2 {
		t.Fatalf("non-object proposal: exit %d want 2", code)
	}
}

func TestRun_AnchorWithoutFunds(t *testing.T) {
	h := newHarness(t)
	h.mustRun("key", "init", "--seed-hex", testSeed)
	code, _, errOut := h.run("anchor", "--example")
	if code != 1 || !strings.Contains(errOut, "NO_FUNDS") {
		t.Fatalf("exit %d, stderr %s", code, errOut)
	}
}

func TestRun_VerifyUnknownTransaction(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("verify", strings.Repeat("00", 32))
	if code != 1 || !strings.Contains(errOut, "RECORD_NOT_FOUND") {
		t.Fatalf("exit %d, stderr %s", code, errOut)
	}
}

func TestRun_Status(t *testing.T) {
	h := newHarness(t)
	h.mustRun("key", "init", "--seed-hex", testSeed)

	code, out, _ := h.run("status")
	st := decode[model.StatusReport](t, out)
	if code != 1 || st.Ready {
		t.Fatalf("unfunded status: exit %d, %+v", code, st)
	}

	h.mustRun("devnet", "fund")
	st = decode[model.StatusReport](t, h.mustRun("status"))
	if !st.Ready || st.BalanceLovelace != defaultFaucetAmount || st.UTxOs != 1 {
		t.Fatalf("funded status = %+v", st)
	}
	if len(st.Backends) != 1 || st.Ledger != config.LedgerDevnet {
		t.Fatalf("funded status = %+v", st)
	}
}

func TestRun_StorePutGet(t *testing.T) {
	h := newHarness(t)
	src := filepath.Join(h.dir, "blob.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	handle := strings.TrimSpace(h.mustRun("store", "put", src))
	if !strings.HasPrefix(handle, "b") {
		t.Fatalf("handle = %q", handle)
	}
	if got := h.mustRun("store", "get", handle); got != "hello" {
		t.Fatalf("get = %q", got)
	}
	dst := filepath.Join(h.dir, "copy.txt")
	h.mustRun("store", "get", "--backend", "localfs", "--out", dst, handle)
	if b, err := os.ReadFile(dst); err != nil || string(b) != "hello" {
		t.Fatalf("copy = %q, %v", b, err)
	}
}

func TestRun_Backends(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("backends")
	for _, name := range []string{"localfs", "ipfs", "grpc", "arweave"} {
		if !strings.Contains(out, name+"\t") {
			t.Fatalf("backend %s not listed:\n%s", name, out)
		}
	}
}

func TestMask(t *testing.T) {
	if got := mask("preprodABCDEFGHIJKLMN"); got != "preprodA...KLMN" {
		t.Fatalf("mask = %q", got)
	}
	if got := mask("short"); got != "****" {
		t.Fatalf("mask = %q", got)
	}
}
