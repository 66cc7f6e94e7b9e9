package main

import (
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/evidence"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/model"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/verify"
)

func (a *app) cmdVerify(args []string) int {
	fs := newFlagSet("verify", a.errOut)
	var (
		output       string
		showProposal bool
		showMetadata bool
		bundlePath   string
	)
	fs.StringVarP(&output, "output", "o", "", "Also write the report JSON to this file")
	fs.BoolVar(&showProposal, "show-proposal", false, "Include the retrieved proposal in the report")
	fs.BoolVar(&showMetadata, "show-metadata", false, "Include the on-chain anchor record in the report")
	fs.StringVar(&bundlePath, "bundle", "", "Write an evidence bundle (tar) for the verified anchor")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return usageError(a.errOut, "usage: proposal-anchor verify <txid> [--output <file>] [--show-proposal]")
	}
	id, err := ledger.ParseTxID(fs.Arg(0))
	if err != nil {
		return usageError(a.errOut, "invalid transaction id: %v", err)
	}

	cfg, code := a.load(config.OpVerify)
	if cfg == nil {
		return code
	}
	stores, err := openStores(cfg, "")
	if err != nil {
		return a.fail("storage", err)
	}
	defer stores.Close()
	l, closeLedger, err := openLedger(cfg)
	if err != nil {
		return a.fail("ledger", err)
	}
	defer closeLedger()

	v := &verify.Verifier{Ledger: l, Stores: stores.Resolver(), Label: cfg.Anchor.Label}
	res, err := v.Verify(a.ctx, id)
	if err != nil {
		return a.fail("verify", err)
	}

	if bundlePath != "" && res.Match {
		if err := writeBundle(bundlePath, []evidence.Entry{evidence.FromVerification(res)}); err != nil {
			return a.fail("bundle", err)
		}
	}
	report := model.FromVerification(res, model.ReportOptions{
		IncludeProposal: showProposal,
		IncludeMetadata: showMetadata,
	})
	if err := a.emit(report, output); err != nil {
		return a.fail("output", err)
	}
	if !res.Match {
		log.Warnf("Fingerprint mismatch for %s: %s", id, res.Reason)
		return 1
	}
	return 0
}
