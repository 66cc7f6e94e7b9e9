// Package ipfs implements a content store backed by the local Kubo "ipfs"
// CLI, with an optional HTTP gateway used for reads.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// Kind is recorded on chain for payloads held by this backend.
const Kind = "ipfs"

// DefaultGateway is the public gateway used for URLs when none is configured.
const DefaultGateway = "https://ipfs.io"

// Store is a content store backed by the Kubo CLI.
//
// Writes go to the local IPFS repo as raw blocks (CIDv1, sha2-256) so the
// handle equals cidutil.Sum of the payload. Reads try the local repo first
// and then the gateway. Raw block reads are checked against the CID;
// reachability is not validity. File CIDs from older anchors are read as
// files and left to the caller's fingerprint check.
type Store struct {
	bin     string
	env     []string
	pin     bool
	noCLI   bool
	gateway *Gateway
}

type Options struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Path sets IPFS_PATH for the CLI. Ignored when Env is set.
	Path string
	// Env optionally overrides the command environment.
	// If nil, the process environment is used.
	Env []string
	// Pin pins stored blocks so the local repo does not garbage collect them.
	Pin bool
	// Gateway is the base URL of an HTTP gateway used for reads and URLs.
	Gateway string
	// GatewayOnly disables the CLI. Put then returns storage.ErrReadOnly.
	GatewayOnly bool
}

func New(opts Options) *Store {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	env := opts.Env
	if env == nil && opts.Path != "" {
		env = append(os.Environ(), "IPFS_PATH="+opts.Path)
	}
	s := &Store{bin: bin, env: env, pin: opts.Pin, noCLI: opts.GatewayOnly}
	if opts.Gateway != "" || opts.GatewayOnly {
		s.gateway = NewGateway(opts.Gateway)
	}
	return s
}

func (s *Store) Kind() string { return Kind }

func (s *Store) Put(ctx context.Context, data []byte, _ storage.Tags) (storage.Handle, error) {
	if s.noCLI {
		return "", storage.ErrReadOnly
	}
	want := cidutil.String(data)
	if want == "" {
		return "", storage.ErrInvalidHandle
	}

	// Store as a raw block with explicit parameters so the CID matches cidutil.
	out, err := s.run(ctx, data,
		"block", "put",
		"--quiet",
		"--format=raw",
		"--mhtype=sha2-256",
		"--mhlen=32",
		"--cid-version=1",
		"/dev/stdin",
	)
	if err != nil {
		return "", err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return "", fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if got.String() != want {
		return "", storage.ErrHandleMismatch
	}
	if s.pin {
		if _, err := s.run(ctx, nil, "pin", "add", "--quiet", want); err != nil {
			return "", fmt.Errorf("ipfs: pin %s: %w", want, err)
		}
	}
	log.Debugf("stored block %s (%d bytes)", want, len(data))
	return storage.Handle(want), nil
}

// Get returns the bytes behind h. Raw block CIDs are fetched as blocks and
// checked against the CID. Any other CID, such as the CIDv0 UnixFS files
// older anchors point at, is fetched as a file; its bytes cannot be checked
// here and are left to the fingerprint comparison.
func (s *Store) Get(ctx context.Context, h storage.Handle) ([]byte, error) {
	file := false
	if _, err := cidutil.Parse(string(h)); err != nil {
		if _, derr := cid.Decode(string(h)); derr != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrInvalidHandle, derr)
		}
		file = true
	}

	var cliErr error
	if !s.noCLI {
		out, err := s.fetchLocal(ctx, h, file)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, storage.ErrHandleMismatch) {
			return nil, err
		}
		if isLikelyNotFound(err) {
			err = storage.ErrNotFound
		}
		cliErr = err
		if s.gateway == nil {
			return nil, cliErr
		}
		log.Debugf("local fetch of %s failed (%v), trying gateway", h, err)
	}

	var (
		out []byte
		err error
	)
	if file {
		out, err = s.gateway.GetFile(ctx, h)
	} else {
		out, err = s.gateway.Get(ctx, h)
	}
	if err != nil {
		if cliErr != nil && !storage.IsNotFound(cliErr) && storage.IsNotFound(err) {
			return nil, cliErr
		}
		return nil, err
	}
	return out, nil
}

func (s *Store) fetchLocal(ctx context.Context, h storage.Handle, file bool) ([]byte, error) {
	if file {
		return s.run(ctx, nil, "cat", string(h))
	}
	out, err := s.run(ctx, nil, "block", "get", string(h))
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(string(h), out) {
		return nil, storage.ErrHandleMismatch
	}
	return out, nil
}

func (s *Store) URL(h storage.Handle) string {
	if s.gateway != nil {
		return s.gateway.URL(h)
	}
	return DefaultGateway + "/ipfs/" + string(h)
}

func (s *Store) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.bin, args...)
	if s.env != nil {
		cmd.Env = s.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		msg := strings.TrimSpace(string(ee.Stderr))
		if msg == "" {
			return nil, fmt.Errorf("ipfs: %v", err)
		}
		return nil, fmt.Errorf("ipfs: %s", msg)
	}
	return nil, err
}

func isLikelyNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found")
}
