package keys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
)

// SeedSize is the length of an ed25519 seed.
const SeedSize = ed25519.SeedSize

// SigningKey is an ed25519 payment key.
type SigningKey struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Generate creates a new key from r, or crypto/rand when r is nil.
func Generate(r io.Reader) (*SigningKey, error) {
	if r == nil {
		r = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &SigningKey{priv: priv, pub: pub}, nil
}

// FromSeed derives the key for a 32-byte seed.
func FromSeed(seed []byte) (*SigningKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("keys: expected seed length of %d bytes, got %d", SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &SigningKey{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// ParseSeedHex decodes a hex seed, tolerating surrounding space and a 0x
// prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("keys: expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

// Seed returns a copy of the private seed.
func (k *SigningKey) Seed() []byte { return append([]byte(nil), k.priv.Seed()...) }

// PublicKey returns a copy of the verification key.
func (k *SigningKey) PublicKey() []byte { return append([]byte(nil), k.pub...) }

// KeyHash is the payment credential of the key.
func (k *SigningKey) KeyHash() [ledger.KeyHashSize]byte { return ledger.KeyHash(k.pub) }

// Address is the enterprise address paying to this key on net.
func (k *SigningKey) Address(net ledger.Network) ledger.Address {
	return ledger.EnterpriseAddress(net, k.pub)
}

// Sign returns the ed25519 signature of msg.
func (k *SigningKey) Sign(msg []byte) []byte { return ed25519.Sign(k.priv, msg) }

// Witness signs a transaction id.
func (k *SigningKey) Witness(id ledger.TxID) ledger.VKeyWitness {
	return ledger.VKeyWitness{VKey: k.PublicKey(), Signature: k.Sign(id[:])}
}

// Owns reports whether addr pays to this key.
func (k *SigningKey) Owns(addr ledger.Address) bool {
	kh, ok := addr.PaymentKeyHash()
	return ok && kh == k.KeyHash()
}
