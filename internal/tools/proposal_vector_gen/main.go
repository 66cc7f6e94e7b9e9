// Command proposal_vector_gen writes conformance vectors for proposal
// canonicalization: given a proposal JSON file it prints the canonical
// bytes, the fingerprint and the content handle of the canonical bytes.
//
//	go run ./internal/tools/proposal_vector_gen testdata/conformance/proposal/minimal_1.json
//	go run ./internal/tools/proposal_vector_gen --write testdata/conformance/proposal/minimal_1.json
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/canon"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/fingerprint"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/proposal"
)

func main() {
	fs := pflag.NewFlagSet("proposal_vector_gen", pflag.ExitOnError)
	write := fs.Bool("write", false, "write <name>.canonical and <name>.fingerprint next to each input")
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: proposal_vector_gen [--write] <proposal.json> ...")
		os.Exit(2)
	}

	for _, path := range fs.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			panic(err)
		}
		c, err := proposal.Parse(src)
		if err != nil {
			panic(fmt.Errorf("%s: %w", path, err))
		}
		if err := c.Validate(); err != nil {
			panic(fmt.Errorf("%s: %w", path, err))
		}
		canonical, err := canon.Canonicalize(c)
		if err != nil {
			panic(fmt.Errorf("%s: %w", path, err))
		}
		fp := fingerprint.Sum(canonical)

		fmt.Printf("FILE=%s\n", path)
		fmt.Printf("FINGERPRINT=%s\n", fp)
		fmt.Printf("CID=%s\n", cidutil.String(canonical))
		fmt.Printf("---BEGIN---\n%s\n---END---\n", canonical)

		if *write {
			base := strings.TrimSuffix(path, ".json")
			if err := os.WriteFile(base+".canonical", canonical, 0o644); err != nil {
				panic(err)
			}
			if err := os.WriteFile(base+".fingerprint", []byte(fp+"\n"), 0o644); err != nil {
				panic(err)
			}
		}
	}
}
