package main

import (
	"fmt"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger/blockfrost"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/model"
)

// cmdStatus checks that the key, ledger and stores are usable and prints a
// summary. It exits 0 only when anchoring could proceed.
func (a *app) cmdStatus(args []string) int {
	fs := newFlagSet("status", a.errOut)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return usageError(a.errOut, "usage: proposal-anchor status")
	}
	cfg, code := a.load(config.OpStatus)
	if cfg == nil {
		return code
	}

	net := cfg.ParsedNetwork()
	st := model.StatusReport{
		Network:       string(net),
		Ledger:        cfg.Ledger.Kind,
		MetadataLabel: cfg.Anchor.Label,
		Backends:      []string{},
	}
	check := func(name string, err error, detail string) bool {
		c := model.Check{Name: name, OK: err == nil, Detail: detail}
		if err != nil {
			c.Detail = err.Error()
		}
		st.Checks = append(st.Checks, c)
		return c.OK
	}

	key, err := loadKey(cfg)
	if check("key", err, cfg.Key.File) {
		st.Address = key.Address(net).String()
	}

	if cfg.Ledger.Kind == config.LedgerBlockfrost {
		check("blockfrost_project", nil, mask(cfg.Ledger.Blockfrost.ProjectID))
	}

	l, closeLedger, err := openLedger(cfg)
	if check("ledger", err, cfg.Ledger.Kind) {
		defer closeLedger()
		if bf, ok := l.(*blockfrost.Client); ok {
			tip, err := bf.LatestBlock(a.ctx)
			if check("chain_tip", err, fmt.Sprintf("epoch %d slot %d", tip.Epoch, tip.Slot)) {
				st.TipHeight = tip.Height
			}
		}
		_, err := l.ProtocolParams(a.ctx)
		check("protocol_params", err, "")
		if key != nil {
			inputs, err := l.ListSpendable(a.ctx, key.Address(net))
			if check("utxos", err, "") {
				st.UTxOs = len(inputs)
				st.BalanceLovelace = ledger.Sum(inputs)
				var fundsErr error
				if len(inputs) == 0 {
					fundsErr = fmt.Errorf("no spendable outputs at %s", st.Address)
				}
				check("funds", fundsErr, fmt.Sprintf("%d lovelace in %d outputs", st.BalanceLovelace, st.UTxOs))
			}
		}
	}

	stores, err := openStores(cfg, "")
	if check("storage", err, "") {
		defer stores.Close()
		for _, b := range stores.Backends {
			st.Backends = append(st.Backends, b.Name+" ("+b.Store.Kind()+")")
		}
	}

	st.Ready = true
	for _, c := range st.Checks {
		st.Ready = st.Ready && c.OK
	}
	if err := a.emit(st, ""); err != nil {
		return a.fail("output", err)
	}
	if !st.Ready {
		return 1
	}
	return 0
}

// mask hides all but the ends of a credential.
func mask(s string) string {
	if len(s) <= 12 {
		return "****"
	}
	return s[:8] + "..." + s[len(s)-4:]
}
