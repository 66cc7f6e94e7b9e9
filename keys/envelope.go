package keys

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	SigningKeyType      = "PaymentSigningKeyShelley_ed25519"
	VerificationKeyType = "PaymentVerificationKeyShelley_ed25519"

	// cborBytes32 is the CBOR header of a 32-byte byte string.
	cborBytes32 = "5820"
)

// Envelope is the cardano-cli text envelope.
type Envelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CBORHex     string `json:"cborHex"`
}

// SigningEnvelope wraps k's seed.
func SigningEnvelope(k *SigningKey) Envelope {
	return Envelope{
		Type:        SigningKeyType,
		Description: "Payment Signing Key",
		CBORHex:     cborBytes32 + hex.EncodeToString(k.priv.Seed()),
	}
}

// VerificationEnvelope wraps k's public key.
func VerificationEnvelope(k *SigningKey) Envelope {
	return Envelope{
		Type:        VerificationKeyType,
		Description: "Payment Verification Key",
		CBORHex:     cborBytes32 + hex.EncodeToString(k.pub),
	}
}

// Parse reads a signing key from a text envelope or a bare hex seed.
func Parse(data []byte) (*SigningKey, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		seed, err := ParseSeedHex(trimmed)
		if err != nil {
			return nil, err
		}
		return FromSeed(seed)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, fmt.Errorf("keys: envelope: %w", err)
	}
	if env.Type != SigningKeyType {
		return nil, fmt.Errorf("keys: envelope type %q, want %q", env.Type, SigningKeyType)
	}
	if !strings.HasPrefix(env.CBORHex, cborBytes32) {
		return nil, errors.New("keys: envelope cborHex is not a 32-byte key")
	}
	seed, err := ParseSeedHex(strings.TrimPrefix(env.CBORHex, cborBytes32))
	if err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// Load reads the signing key at path.
func Load(path string) (*SigningKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// Save writes k to path as a text envelope readable only by the owner. An
// existing file is left untouched unless overwrite is set.
func Save(path string, k *SigningKey, overwrite bool) error {
	body, err := json.MarshalIndent(SigningEnvelope(k), "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.Write(append(body, '\n')); err != nil {
		return err
	}
	return file.Close()
}
