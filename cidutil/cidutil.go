// Package cidutil derives the content identifiers used as storage handles by
// the content-addressed stores.
package cidutil

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ErrUnsupportedCID is returned for CIDs that are not CIDv1 raw + sha2-256.
var ErrUnsupportedCID = errors.New("cidutil: only CIDv1 raw sha2-256 identifiers are accepted")

// Sum returns the CIDv1 (raw codec, sha2-256 multihash) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the string form of Sum(data).
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		// multihash.Sum only fails for unknown codes or bad lengths.
		return ""
	}
	return id.String()
}

// Parse decodes s and checks that it uses the raw codec and sha2-256.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("cidutil: %w", err)
	}
	if !id.Defined() {
		return cid.Undef, ErrUnsupportedCID
	}
	pref := id.Prefix()
	if pref.Version != 1 || pref.Codec != cid.Raw || pref.MhType != multihash.SHA2_256 {
		return cid.Undef, ErrUnsupportedCID
	}
	return id, nil
}

// Matches reports whether data hashes to the CID encoded in s.
func Matches(s string, data []byte) bool {
	want, err := Parse(s)
	if err != nil {
		return false
	}
	got, err := Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(want)
}
