package main

import (
	"fmt"
	"io"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger/devnet"
)

// defaultFaucetAmount is 100 ada.
const defaultFaucetAmount = 100_000_000

func (a *app) cmdDevnet(args []string) int {
	if len(args) == 0 {
		printDevnetUsage(a.errOut)
		return 2
	}
	switch args[0] {
	case "fund":
		return a.cmdDevnetFund(args[1:])
	case "help", "-h", "--help":
		printDevnetUsage(a.out)
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown devnet subcommand: %s\n\n", args[0])
		printDevnetUsage(a.errOut)
		return 2
	}
}

func printDevnetUsage(w io.Writer) {
	fmt.Fprintln(w, "proposal-anchor devnet: local ledger for demos and tests")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  proposal-anchor devnet fund [--amount <lovelace>] [--address <addr>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Requires ledger.kind=devnet and ledger.devnet.path (or $"+config.EnvLedger+"=devnet")
	fmt.Fprintln(w, "and $"+config.EnvDevnetPath+"). The address defaults to the configured key.")
}

type fundResult struct {
	Address string `json:"address"`
	OutRef  string `json:"out_ref"`
	Amount  uint64 `json:"amount_lovelace"`
	Balance uint64 `json:"balance_lovelace"`
}

func (a *app) cmdDevnetFund(args []string) int {
	fs := newFlagSet("devnet fund", a.errOut)
	var (
		amount  uint64
		address string
	)
	fs.Uint64Var(&amount, "amount", defaultFaucetAmount, "Lovelace to create")
	fs.StringVar(&address, "address", "", "Recipient address (default: the configured key)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return usageError(a.errOut, "usage: proposal-anchor devnet fund [--amount <lovelace>] [--address <addr>]")
	}

	cfg, code := a.load(config.OpVerify)
	if cfg == nil {
		return code
	}
	if cfg.Ledger.Kind != config.LedgerDevnet {
		return usageError(a.errOut, "devnet fund needs ledger.kind=%s, configured %q", config.LedgerDevnet, cfg.Ledger.Kind)
	}
	if cfg.Ledger.Devnet.Path == "" {
		return usageError(a.errOut, "devnet fund needs a persistent ledger.devnet.path")
	}

	var addr ledger.Address
	if address != "" {
		var err error
		if addr, err = ledger.ParseAddress(address); err != nil {
			return usageError(a.errOut, "invalid --address: %v", err)
		}
	} else {
		k, err := loadKey(cfg)
		if err != nil {
			return a.fail("key", err)
		}
		addr = k.Address(cfg.ParsedNetwork())
	}

	params := ledger.DefaultParams
	if p := cfg.Ledger.Devnet.Params; p != nil {
		params = *p
	}
	l, err := devnet.Open(cfg.Ledger.Devnet.Path, params)
	if err != nil {
		return a.fail("devnet", err)
	}
	defer l.Close()

	ref, err := l.Fund(a.ctx, addr, amount)
	if err != nil {
		return a.fail("devnet", err)
	}
	inputs, err := l.ListSpendable(a.ctx, addr)
	if err != nil {
		return a.fail("devnet", err)
	}
	res := fundResult{Address: addr.String(), OutRef: ref.String(), Amount: amount, Balance: ledger.Sum(inputs)}
	if err := a.emit(res, ""); err != nil {
		return a.fail("output", err)
	}
	return 0
}
