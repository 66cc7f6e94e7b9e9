package main

import (
	"fmt"
	"strings"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/keys"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger/blockfrost"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger/devnet"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/storeconfig"

	_ "github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/arweave"
	_ "github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/grpccas"
	_ "github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/ipfs"
	_ "github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/localfs"
)

// appVersion is recorded in the tags of stored proposals.
const appVersion = "1.0.0"

// openLedger returns the configured ledger adapter and its close function.
func openLedger(cfg *config.Config) (ledger.Ledger, func() error, error) {
	net := cfg.ParsedNetwork()
	switch cfg.Ledger.Kind {
	case config.LedgerDevnet:
		params := ledger.DefaultParams
		if p := cfg.Ledger.Devnet.Params; p != nil {
			params = *p
		}
		l, err := devnet.Open(cfg.Ledger.Devnet.Path, params)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Ledger.Devnet.Path == "" {
			log.Warnf("Devnet has no path; ledger state is discarded on exit")
		}
		return l, l.Close, nil
	case config.LedgerBlockfrost:
		c, err := blockfrost.New(net, cfg.Ledger.Blockfrost.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		if base := cfg.Ledger.Blockfrost.BaseURL; base != "" {
			c.BaseURL = strings.TrimRight(base, "/")
		}
		if d := cfg.BlockfrostTimeout(); d > 0 {
			c.HTTP.Timeout = d
		}
		return c, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger kind %q", cfg.Ledger.Kind)
	}
}

// openStores opens the configured content stores. preferred, when set,
// names the backend that receives writes.
func openStores(cfg *config.Config, preferred string) (*storeconfig.Opened, error) {
	return cfg.Storage.Open(registry.UsageCLI, preferred)
}

func loadKey(cfg *config.Config) (*keys.SigningKey, error) {
	path, err := cfg.KeyFile()
	if err != nil {
		return nil, err
	}
	return keys.Load(path)
}
