package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
)

func (a *app) cmdStore(args []string) int {
	if len(args) == 0 {
		printStoreUsage(a.errOut)
		return 2
	}
	switch args[0] {
	case "put":
		return a.cmdStorePut(args[1:])
	case "get":
		return a.cmdStoreGet(args[1:])
	case "help", "-h", "--help":
		printStoreUsage(a.out)
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown store subcommand: %s\n\n", args[0])
		printStoreUsage(a.errOut)
		return 2
	}
}

func printStoreUsage(w io.Writer) {
	fmt.Fprintln(w, "proposal-anchor store: direct access to the configured content stores")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  proposal-anchor store put [--backend <id>] <file>")
	fmt.Fprintln(w, "  proposal-anchor store get [--backend <id>] [--out <file>] <handle>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - put prints the handle; localfs, ipfs and grpc handles are CIDv1 raw sha2-256")
	fmt.Fprintln(w, "  - get tries each configured backend in order unless --backend is given")
}

func (a *app) cmdStorePut(args []string) int {
	fs := newFlagSet("store put", a.errOut)
	var backend string
	fs.StringVar(&backend, "backend", "", "Backend (name or id) to write to")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return usageError(a.errOut, "usage: proposal-anchor store put [--backend <id>] <file>")
	}
	p := fs.Arg(0)
	b, err := os.ReadFile(p)
	if err != nil {
		fmt.Fprintf(a.errOut, "read %s: %v\n", filepath.Base(p), err)
		return 1
	}

	cfg, code := a.load(config.OpStore)
	if cfg == nil {
		return code
	}
	stores, err := openStores(cfg, backend)
	if err != nil {
		return a.fail("storage", err)
	}
	defer stores.Close()

	h, err := stores.Store.Put(a.ctx, b, storage.Tags{"Content-Type": "application/octet-stream"})
	if err != nil {
		return a.fail("put", err)
	}
	_, _ = fmt.Fprintln(a.out, h)
	if u := stores.Store.URL(h); u != "" {
		fmt.Fprintf(a.errOut, "URL: %s\n", u)
	}
	return 0
}

func (a *app) cmdStoreGet(args []string) int {
	fs := newFlagSet("store get", a.errOut)
	var (
		backend string
		outPath string
	)
	fs.StringVar(&backend, "backend", "", "Read only from this backend (name or id)")
	fs.StringVar(&outPath, "out", "", "Output file (default stdout)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return usageError(a.errOut, "usage: proposal-anchor store get [--backend <id>] [--out <file>] <handle>")
	}
	h := storage.Handle(fs.Arg(0))

	cfg, code := a.load(config.OpStore)
	if cfg == nil {
		return code
	}
	stores, err := openStores(cfg, backend)
	if err != nil {
		return a.fail("storage", err)
	}
	defer stores.Close()

	src := stores.Store
	if backend != "" {
		src = stores.Backends[0].Store
	}
	b, err := src.Get(a.ctx, h)
	if err != nil {
		return a.fail("get", err)
	}
	if outPath == "" {
		_, _ = a.out.Write(b)
		return 0
	}
	if err := os.WriteFile(outPath, b, 0o600); err != nil {
		fmt.Fprintf(a.errOut, "write %s: %v\n", outPath, err)
		return 1
	}
	return 0
}

// cmdBackends lists the store backends linked into this binary.
func (a *app) cmdBackends(args []string) int {
	fs := newFlagSet("backends", a.errOut)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	for _, b := range registry.List(registry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(a.out, "%s\n", b.Name)
		} else {
			_, _ = fmt.Fprintf(a.out, "%s\t%s\n", b.Name, b.Description)
		}
		keys := append([]registry.Key(nil), b.Keys...)
		sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
		for _, k := range keys {
			var flags []string
			if k.Required {
				flags = append(flags, "required")
			}
			suffix := ""
			if len(flags) > 0 {
				suffix = " (" + strings.Join(flags, ", ") + ")"
			}
			_, _ = fmt.Fprintf(a.out, "  %s\t%s%s\n", k.Name, k.Help, suffix)
		}
	}
	return 0
}
