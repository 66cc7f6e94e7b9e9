package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/config"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/keys"
)

// randReader is replaced in tests.
var randReader io.Reader = rand.Reader

func (a *app) cmdKey(args []string) int {
	if len(args) == 0 {
		printKeyUsage(a.errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return a.cmdKeyInit(args[1:])
	case "show":
		return a.cmdKeyShow(args[1:])
	case "help", "-h", "--help":
		printKeyUsage(a.out)
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(a.errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "proposal-anchor key: payment signing key")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  proposal-anchor key init [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  proposal-anchor key show")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The key is written to key.file in the config (or $"+config.EnvKeyFile+")")
	fmt.Fprintln(w, "as a cardano-cli text envelope readable only by the owner.")
}

type keyInfo struct {
	File            string `json:"file"`
	Network         string `json:"network"`
	Address         string `json:"address"`
	KeyHash         string `json:"key_hash"`
	VerificationKey any    `json:"verification_key"`
}

func (a *app) cmdKeyInit(args []string) int {
	fs := newFlagSet("key init", a.errOut)
	var (
		seedHex string
		force   bool
	)
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key file")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return usageError(a.errOut, "usage: proposal-anchor key init [--seed-hex <64hex>] [--force]")
	}

	var (
		k   *keys.SigningKey
		err error
	)
	if seedHex != "" {
		seed, perr := keys.ParseSeedHex(seedHex)
		if perr != nil {
			return usageError(a.errOut, "invalid --seed-hex: %v", perr)
		}
		k, err = keys.FromSeed(seed)
	} else {
		k, err = keys.Generate(randReader)
	}
	if err != nil {
		return a.fail("key", err)
	}

	cfg, code := a.load(config.OpStore)
	if cfg == nil {
		return code
	}
	path, err := cfg.KeyFile()
	if err != nil {
		return usageError(a.errOut, "%v", err)
	}
	if err := keys.Save(path, k, force); err != nil {
		return a.fail("key", err)
	}
	log.Infof("Wrote signing key to %s", path)
	return a.printKey(cfg, path, k)
}

func (a *app) cmdKeyShow(args []string) int {
	fs := newFlagSet("key show", a.errOut)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return usageError(a.errOut, "usage: proposal-anchor key show")
	}
	cfg, code := a.load(config.OpStore)
	if cfg == nil {
		return code
	}
	k, err := loadKey(cfg)
	if err != nil {
		return a.fail("key", err)
	}
	return a.printKey(cfg, cfg.Key.File, k)
}

func (a *app) printKey(cfg *config.Config, path string, k *keys.SigningKey) int {
	net := cfg.ParsedNetwork()
	kh := k.KeyHash()
	info := keyInfo{
		File:            path,
		Network:         string(net),
		Address:         k.Address(net).String(),
		KeyHash:         hex.EncodeToString(kh[:]),
		VerificationKey: keys.VerificationEnvelope(k),
	}
	if err := a.emit(info, ""); err != nil {
		return a.fail("output", err)
	}
	return 0
}
