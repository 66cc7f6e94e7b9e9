package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runEnv(ctx, args, out, errOut, os.Getenv)
}

// app is the state shared by every command of one invocation.
type app struct {
	ctx        context.Context
	out        io.Writer
	errOut     io.Writer
	getenv     func(string) string
	configPath string
	logLevel   string
}

func runEnv(ctx context.Context, args []string, out, errOut io.Writer, getenv func(string) string) int {
	a := &app{ctx: ctx, out: out, errOut: errOut, getenv: getenv}

	fs := pflag.NewFlagSet("proposal-anchor", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.SetInterspersed(false)
	fs.StringVar(&a.configPath, "config", "", "YAML config file (default $"+config.EnvConfig+")")
	fs.StringVar(&a.logLevel, "log-level", "", "trace|debug|info|warn|error|critical|off")
	fs.Usage = func() { printUsage(errOut) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(errOut)
		return 2
	}

	rest := fs.Args()[1:]
	switch fs.Arg(0) {
	case "anchor":
		return a.cmdAnchor(rest)
	case "verify":
		return a.cmdVerify(rest)
	case "status":
		return a.cmdStatus(rest)
	case "key":
		return a.cmdKey(rest)
	case "devnet":
		return a.cmdDevnet(rest)
	case "store":
		return a.cmdStore(rest)
	case "bundle":
		return a.cmdBundle(rest)
	case "backends":
		return a.cmdBackends(rest)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", fs.Arg(0))
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "proposal-anchor: anchor community proposals on Cardano and verify them")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  proposal-anchor [--config <file>] [--log-level <level>] <command> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  anchor (--file <proposal.json> | --stdin | --example) [--output <file>] [--backend <id>] [--bundle <file.tar>]")
	fmt.Fprintln(w, "  verify <txid> [--output <file>] [--show-proposal] [--show-metadata] [--bundle <file.tar>]")
	fmt.Fprintln(w, "  status")
	fmt.Fprintln(w, "  key init [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  key show")
	fmt.Fprintln(w, "  devnet fund [--amount <lovelace>] [--address <addr>]")
	fmt.Fprintln(w, "  store put [--backend <id>] <file>")
	fmt.Fprintln(w, "  store get [--backend <id>] [--out <file>] <handle>")
	fmt.Fprintln(w, "  bundle verify <file.tar>")
	fmt.Fprintln(w, "  bundle import [--backend <id>] <file.tar>")
	fmt.Fprintln(w, "  backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - BLOCKFROST_API_KEY, BLOCKFROST_NETWORK and METADATA_LABEL override the config file")
	fmt.Fprintln(w, "  - set ANCHOR_LEDGER=devnet and ANCHOR_DEVNET_PATH=<dir> to work against a local ledger")
	fmt.Fprintln(w, "  - results are printed to stdout as JSON; logs go to stderr")
	fmt.Fprintln(w, "  - verify exits 0 only when the stored content matches the on-chain fingerprint")
}

// load reads and validates the configuration for op and configures logging.
// On failure it reports every problem and returns exit code 2.
func (a *app) load(op config.Operation) (*config.Config, int) {
	cfg, err := config.Load(config.Path(a.configPath, a.getenv), a.getenv)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return nil, 2
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if report := cfg.Validate(op); !report.OK() {
		fmt.Fprintln(a.errOut, "invalid configuration:")
		for _, p := range report.Problems {
			fmt.Fprintf(a.errOut, "  %s\n", p)
		}
		return nil, 2
	}
	initLogging(a.errOut, cfg.LogLevel())
	return cfg, 0
}

// fail reports err on stderr and returns exit code 1.
func (a *app) fail(what string, err error) int {
	ce := model.FromError(err)
	if ce.Rule != "" {
		fmt.Fprintf(a.errOut, "%s: %s [%s]: %s\n", what, ce.Code, ce.Rule, ce.Message)
		return 1
	}
	fmt.Fprintf(a.errOut, "%s: %s\n", what, ce.Message)
	return 1
}

// emit writes v as indented JSON to stdout and, when path is set, to path.
func (a *app) emit(v any, path string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if _, err := a.out.Write(b); err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Infof("Saved result to %s", path)
	return nil
}

func usageError(w io.Writer, format string, args ...any) int {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(w, msg)
	return 2
}

func newFlagSet(name string, errOut io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// parseFlags reports whether the command should go on. When it should not,
// code is the exit status.
func parseFlags(fs *pflag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}
