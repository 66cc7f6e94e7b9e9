package main

import (
	"io"

	"github.com/decred/slog"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger/blockfrost"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger/devnet"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/grpccas"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/ipfs"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/verify"
)

var log = slog.Disabled

// subsystems maps each logging subsystem tag to the package it controls.
var subsystems = []struct {
	tag string
	use func(slog.Logger)
}{
	{"MAIN", func(l slog.Logger) { log = l }},
	{"ANCR", anchor.UseLogger},
	{"VRFY", verify.UseLogger},
	{"STOR", storage.UseLogger},
	{"IPFS", ipfs.UseLogger},
	{"GRPC", grpccas.UseLogger},
	{"BFRT", blockfrost.UseLogger},
	{"DNET", devnet.UseLogger},
}

// initLogging sends every subsystem to one backend writing to w.
func initLogging(w io.Writer, level slog.Level) {
	backend := slog.NewBackend(w)
	for _, s := range subsystems {
		l := backend.Logger(s.tag)
		l.SetLevel(level)
		s.use(l)
	}
}
