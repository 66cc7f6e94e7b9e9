package ledger

import (
	"encoding/hex"
	"errors"
	"testing"
)

func testVKey() []byte {
	vk := make([]byte, 32)
	for i := range vk {
		vk[i] = byte(i)
	}
	return vk
}

func TestEnterpriseAddress(t *testing.T) {
	vk := testVKey()
	kh := KeyHash(vk)
	if got := hex.EncodeToString(kh[:]); got != "491112dd01155c07dab485f71b572e0cae759e2cd38b1c0e97554297" {
		t.Fatalf("KeyHash = %s", got)
	}

	tests := []struct {
		net  Network
		want string
	}{
		{Preprod, "addr_test1vpy3zykaqy24cp76kjzlwx6h9cx2uav79nfck8qwja2599c7hasm3"},
		{Preview, "addr_test1vpy3zykaqy24cp76kjzlwx6h9cx2uav79nfck8qwja2599c7hasm3"},
		{Mainnet, "addr1v9y3zykaqy24cp76kjzlwx6h9cx2uav79nfck8qwja2599c9lfv55"},
	}
	for _, tc := range tests {
		a := EnterpriseAddress(tc.net, vk)
		if a.String() != tc.want {
			t.Fatalf("%s: String = %s want %s", tc.net, a, tc.want)
		}
		parsed, err := ParseAddress(tc.want)
		if err != nil {
			t.Fatalf("ParseAddress: %v", err)
		}
		if !parsed.Equal(a) {
			t.Fatalf("ParseAddress round trip mismatch")
		}
		pkh, ok := parsed.PaymentKeyHash()
		if !ok || pkh != kh {
			t.Fatalf("PaymentKeyHash = %x, %v", pkh, ok)
		}
	}
}

func TestParseAddress_Rejects(t *testing.T) {
	for _, s := range []string{
		"",
		"addr_test1vpy3zykaqy24cp76kjzlwx6h9cx2uav79nfck8qwja2599c7hasm4", // bad checksum
		"addr1vpy3zykaqy24cp76kjzlwx6h9cx2uav79nfck8qwja2599c7hasm3",      // wrong prefix
	} {
		if _, err := ParseAddress(s); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("ParseAddress(%q) = %v, want ErrInvalidAddress", s, err)
		}
	}
}

func TestParseNetwork(t *testing.T) {
	if n, err := ParseNetwork(" Preprod "); err != nil || n != Preprod {
		t.Fatalf("ParseNetwork = %q, %v", n, err)
	}
	if _, err := ParseNetwork("testnet"); err == nil {
		t.Fatalf("expected error for unknown network")
	}
}
