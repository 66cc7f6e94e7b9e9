// Package ledger models the parts of a Cardano-style ledger the anchoring
// protocol touches: addresses, UTxO inputs and outputs, metadata-carrying
// transactions and fee parameters, plus the interfaces through which the
// protocol funds, submits and reads back those transactions.
package ledger

import (
	"fmt"
	"strings"
)

// Network identifies the chain an address or client targets.
type Network string

const (
	Mainnet Network = "mainnet"
	Preprod Network = "preprod"
	Preview Network = "preview"
)

// Networks lists the supported networks.
var Networks = []Network{Mainnet, Preprod, Preview}

// ParseNetwork accepts a network name case-insensitively.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Networks {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("ledger: unknown network %q", s)
}

// ID is the network id carried in address headers.
func (n Network) ID() byte {
	if n == Mainnet {
		return 1
	}
	return 0
}

// HRP is the bech32 human-readable prefix of payment addresses.
func (n Network) HRP() string {
	if n == Mainnet {
		return "addr"
	}
	return "addr_test"
}
