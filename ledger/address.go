package ledger

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/decred/dcrd/bech32"
	"golang.org/x/crypto/blake2b"
)

// KeyHashSize is the length of a payment key hash.
const KeyHashSize = 28

// enterpriseKeyHeader is the header type of an address with a key payment
// credential and no stake credential.
const enterpriseKeyHeader = 0x60

var ErrInvalidAddress = errors.New("ledger: invalid address")

// Address is a raw Shelley address: one header byte followed by the
// credentials.
type Address []byte

// KeyHash returns the blake2b-224 hash of an ed25519 verification key.
func KeyHash(vkey []byte) [KeyHashSize]byte {
	var out [KeyHashSize]byte
	h, err := blake2b.New(KeyHashSize, nil)
	if err != nil {
		// Only reachable for sizes outside 1..64.
		panic(err)
	}
	h.Write(vkey)
	copy(out[:], h.Sum(nil))
	return out
}

// EnterpriseAddress returns the enterprise address paying to vkey.
func EnterpriseAddress(net Network, vkey []byte) Address {
	kh := KeyHash(vkey)
	a := make(Address, 0, 1+KeyHashSize)
	a = append(a, enterpriseKeyHeader|net.ID())
	return append(a, kh[:]...)
}

// ParseAddress decodes a bech32 address. Shelley base addresses exceed the
// 90 character limit of BIP-173, so no length limit is applied.
func ParseAddress(s string) (Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	a := Address(raw)
	if len(a) < 1+KeyHashSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(a))
	}
	if hrp != a.Network().HRP() {
		return nil, fmt.Errorf("%w: prefix %q does not match network id %d", ErrInvalidAddress, hrp, a[0]&0x0f)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Network reports the network encoded in the header. The test networks share
// network id 0 and are all reported as Preprod.
func (a Address) Network() Network {
	if len(a) > 0 && a[0]&0x0f == 1 {
		return Mainnet
	}
	return Preprod
}

// PaymentKeyHash returns the payment key hash, or false if the payment
// credential is a script or the address is too short.
func (a Address) PaymentKeyHash() ([KeyHashSize]byte, bool) {
	var kh [KeyHashSize]byte
	if len(a) < 1+KeyHashSize {
		return kh, false
	}
	// Header types 0, 2, 4 and 6 carry a key payment credential.
	if (a[0]>>4)&0x01 != 0 || a[0]>>4 > 7 {
		return kh, false
	}
	copy(kh[:], a[1:1+KeyHashSize])
	return kh, true
}

func (a Address) Equal(b Address) bool { return bytes.Equal(a, b) }

func (a Address) String() string {
	if len(a) == 0 {
		return ""
	}
	conv, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(a.Network().HRP(), conv)
	if err != nil {
		return ""
	}
	return s
}

func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
