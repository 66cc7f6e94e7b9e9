package keys

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
)

func testSeed() []byte {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	return seed
}

func TestFromSeed_SignAndAddress(t *testing.T) {
	k, err := FromSeed(testSeed())
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	if !bytes.Equal(k.Seed(), testSeed()) {
		t.Fatalf("Seed round trip mismatch")
	}
	msg := []byte("anchor")
	if !ed25519.Verify(k.PublicKey(), msg, k.Sign(msg)) {
		t.Fatalf("signature does not verify")
	}

	addr := k.Address(ledger.Preprod)
	if !strings.HasPrefix(addr.String(), "addr_test1v") {
		t.Fatalf("address = %s", addr)
	}
	if !k.Owns(addr) {
		t.Fatalf("key does not own its address")
	}
	other, _ := Generate(nil)
	if other.Owns(addr) {
		t.Fatalf("foreign key owns address")
	}

	var id ledger.TxID
	id[0] = 1
	w := k.Witness(id)
	if !ed25519.Verify(w.VKey, id[:], w.Signature) {
		t.Fatalf("witness does not verify")
	}
}

func TestParseSeedHex(t *testing.T) {
	s := "0x" + hex.EncodeToString(testSeed()) + "\n"
	seed, err := ParseSeedHex(s)
	if err != nil || !bytes.Equal(seed, testSeed()) {
		t.Fatalf("ParseSeedHex = %x, %v", seed, err)
	}
	for _, bad := range []string{"", "zz", "abcd"} {
		if _, err := ParseSeedHex(bad); err == nil {
			t.Fatalf("ParseSeedHex(%q) accepted", bad)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	k, _ := FromSeed(testSeed())
	path := filepath.Join(t.TempDir(), "nested", "payment.skey")
	if err := Save(path, k, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}

	var env Envelope
	raw, _ := os.ReadFile(path)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope JSON: %v", err)
	}
	if env.Type != SigningKeyType || env.CBORHex != "5820"+hex.EncodeToString(testSeed()) {
		t.Fatalf("envelope = %+v", env)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(loaded.PublicKey(), k.PublicKey()) {
		t.Fatalf("loaded key differs")
	}

	if err := Save(path, k, false); err == nil {
		t.Fatalf("Save overwrote an existing key")
	}
	if err := Save(path, k, true); err != nil {
		t.Fatalf("Save with overwrite: %v", err)
	}
}

func TestParse_BareSeedAndRejects(t *testing.T) {
	k, err := Parse([]byte(hex.EncodeToString(testSeed())))
	if err != nil {
		t.Fatalf("Parse bare seed: %v", err)
	}
	want, _ := FromSeed(testSeed())
	if !bytes.Equal(k.PublicKey(), want.PublicKey()) {
		t.Fatalf("bare seed key differs")
	}

	vkey, _ := json.Marshal(VerificationEnvelope(want))
	for _, bad := range [][]byte{
		vkey,
		[]byte(`{"type":"PaymentSigningKeyShelley_ed25519","cborHex":"5840"}`),
		[]byte(`{`),
	} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%s) accepted", bad)
		}
	}
}
