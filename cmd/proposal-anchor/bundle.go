package main

import (
	"fmt"
	"io"
	"os"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/evidence"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/model"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/verify"
)

func (a *app) cmdBundle(args []string) int {
	if len(args) == 0 {
		printBundleUsage(a.errOut)
		return 2
	}
	switch args[0] {
	case "verify":
		return a.cmdBundleVerify(args[1:])
	case "import":
		return a.cmdBundleImport(args[1:])
	case "help", "-h", "--help":
		printBundleUsage(a.out)
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown bundle subcommand: %s\n\n", args[0])
		printBundleUsage(a.errOut)
		return 2
	}
}

func printBundleUsage(w io.Writer) {
	fmt.Fprintln(w, "proposal-anchor bundle: offline evidence bundles")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  proposal-anchor bundle verify <file.tar>")
	fmt.Fprintln(w, "  proposal-anchor bundle import [--backend <id>] <file.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "verify recomputes every fingerprint from the bundled content without")
	fmt.Fprintln(w, "touching the network; import copies the content into a configured store.")
}

// cmdBundleVerify needs no configuration: a bundle carries the records and
// the content they point at.
func (a *app) cmdBundleVerify(args []string) int {
	fs := newFlagSet("bundle verify", a.errOut)
	var ignoreUnknown bool
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip files the bundle format does not define")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return usageError(a.errOut, "usage: proposal-anchor bundle verify <file.tar>")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.errOut, "open bundle: %v\n", err)
		return 1
	}
	defer f.Close()

	entries, err := evidence.Read(f, evidence.ReadOptions{IgnoreUnknown: ignoreUnknown})
	if err != nil {
		return a.fail("bundle", err)
	}
	results := make([]*verify.Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, evidence.Check(e))
	}
	report := model.FromBundle(results)
	if err := a.emit(report, ""); err != nil {
		return a.fail("output", err)
	}
	if !report.AllMatch {
		return 1
	}
	return 0
}

func (a *app) cmdBundleImport(args []string) int {
	fs := newFlagSet("bundle import", a.errOut)
	var backend string
	fs.StringVar(&backend, "backend", "", "Backend (name or id) to write to")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return usageError(a.errOut, "usage: proposal-anchor bundle import [--backend <id>] <file.tar>")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.errOut, "open bundle: %v\n", err)
		return 1
	}
	defer f.Close()

	cfg, code := a.load(config.OpStore)
	if cfg == nil {
		return code
	}
	stores, err := openStores(cfg, backend)
	if err != nil {
		return a.fail("storage", err)
	}
	defer stores.Close()

	entries, err := evidence.Import(a.ctx, f, stores.Store)
	if err != nil {
		return a.fail("import", err)
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(a.out, "%s\t%s\n", e.TxID, e.Record.StorageHandle)
	}
	return 0
}
