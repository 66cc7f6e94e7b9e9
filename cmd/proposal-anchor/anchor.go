package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/evidence"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/model"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/proposal"
)

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func (a *app) cmdAnchor(args []string) int {
	fs := newFlagSet("anchor", a.errOut)
	var (
		file       string
		fromStdin  bool
		example    bool
		output     string
		backend    string
		bundlePath string
	)
	fs.StringVarP(&file, "file", "f", "", "Proposal JSON file")
	fs.BoolVar(&fromStdin, "stdin", false, "Read the proposal from stdin")
	fs.BoolVar(&example, "example", false, "Anchor the built-in example proposal")
	fs.StringVarP(&output, "output", "o", "", "Also write the result JSON to this file")
	fs.StringVar(&backend, "backend", "", "Store backend (name or id) that receives the content")
	fs.StringVar(&bundlePath, "bundle", "", "Write an evidence bundle (tar) for the new anchor")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return usageError(a.errOut, "usage: proposal-anchor anchor (--file <proposal.json> | --stdin | --example) [--output <file>]")
	}
	sources := 0
	for _, set := range []bool{file != "", fromStdin, example} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return usageError(a.errOut, "exactly one of --file, --stdin or --example is required")
	}

	var (
		content *proposal.Content
		err     error
	)
	switch {
	case example:
		content = proposal.Example(time.Now())
	case fromStdin:
		content, err = proposal.Read(stdin)
	default:
		var b []byte
		if b, err = os.ReadFile(file); err == nil {
			content, err = proposal.Parse(b)
		}
	}
	if err != nil {
		return usageError(a.errOut, "invalid proposal: %v", err)
	}

	cfg, code := a.load(config.OpAnchor)
	if cfg == nil {
		return code
	}
	key, err := loadKey(cfg)
	if err != nil {
		return a.fail("key", err)
	}
	stores, err := openStores(cfg, backend)
	if err != nil {
		return a.fail("storage", err)
	}
	defer stores.Close()
	l, closeLedger, err := openLedger(cfg)
	if err != nil {
		return a.fail("ledger", err)
	}
	defer closeLedger()

	an := &anchor.Anchorer{
		Store:      stores.Store,
		Ledger:     l,
		Key:        key,
		Network:    cfg.ParsedNetwork(),
		Label:      cfg.Anchor.Label,
		Selection:  cfg.InputSelection(),
		Retry:      cfg.RetryPolicy(),
		AppVersion: appVersion,
	}
	log.Infof("Anchoring %q from %s", title(content), key.Address(an.Network))
	res, err := an.Anchor(a.ctx, content)
	if err != nil {
		return a.fail("anchor", err)
	}

	if bundlePath != "" {
		if err := writeBundle(bundlePath, []evidence.Entry{evidence.FromAnchor(res)}); err != nil {
			return a.fail("bundle", err)
		}
	}
	if err := a.emit(model.FromAnchor(res), output); err != nil {
		return a.fail("output", err)
	}
	return 0
}

func title(c *proposal.Content) string {
	if t, ok := c.String("title"); ok {
		return t
	}
	return "untitled"
}

// writeBundle writes a TAR bundle, zstd-compressed when path ends in .zst.
func writeBundle(path string, entries []evidence.Entry) error {
	export := evidence.Export
	if strings.HasSuffix(path, ".zst") {
		export = evidence.ExportCompressed
	}
	var buf bytes.Buffer
	if err := export(&buf, entries); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Infof("Wrote evidence bundle %s", path)
	return nil
}
