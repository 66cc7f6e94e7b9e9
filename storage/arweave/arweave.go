// Package arweave reads payloads anchored by earlier tooling that stored
// proposals on Arweave. It cannot write.
package arweave

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
)

// Kind is the storage kind recorded by Arweave-backed anchors.
const Kind = "arweave"

const (
	DefaultGateway = "https://arweave.net"
	maxObjectBytes = 16 << 20
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        Kind,
		Description: "Arweave gateway (read-only)",
		Usage:       registry.UsageCLI,
		Keys: []registry.Key{
			{Name: "gateway", Help: "gateway base URL (default " + DefaultGateway + ")"},
		},
		Open: func(cfg map[string]string) (storage.Store, func() error, error) {
			return New(cfg["gateway"]), nil, nil
		},
	})
}

// Store fetches transaction data from an Arweave gateway.
//
// Arweave ids are not content hashes, so retrieved bytes are returned as
// served; integrity rests on the fingerprint check.
type Store struct {
	Gateway string
	Client  *http.Client
}

var _ storage.Store = (*Store)(nil)

func New(gateway string) *Store {
	if gateway == "" {
		gateway = DefaultGateway
	}
	return &Store{
		Gateway: strings.TrimRight(gateway, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Store) Kind() string { return Kind }

func (s *Store) Put(context.Context, []byte, storage.Tags) (storage.Handle, error) {
	return "", storage.ErrReadOnly
}

func (s *Store) URL(h storage.Handle) string { return s.Gateway + "/" + string(h) }

func (s *Store) Get(ctx context.Context, h storage.Handle) ([]byte, error) {
	if !ValidID(string(h)) {
		return nil, storage.ErrInvalidHandle
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(h), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arweave: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		// 202 means the transaction is still pending.
		return nil, fmt.Errorf("arweave: %s: %s", s.URL(h), resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("arweave: %w", err)
	}
	if len(b) > maxObjectBytes {
		return nil, fmt.Errorf("arweave: object larger than %d bytes", maxObjectBytes)
	}
	return b, nil
}

// ValidID reports whether s is a 43-character base64url Arweave id.
func ValidID(s string) bool {
	if len(s) != 43 {
		return false
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(b) == 32
}
