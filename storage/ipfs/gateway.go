package ipfs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// maxObjectBytes bounds gateway responses.
const maxObjectBytes = 16 << 20

// Gateway fetches blocks and files from an HTTP IPFS gateway.
type Gateway struct {
	Base   string
	Client *http.Client
}

func NewGateway(base string) *Gateway {
	if base == "" {
		base = DefaultGateway
	}
	return &Gateway{
		Base:   strings.TrimRight(base, "/"),
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gateway) URL(h storage.Handle) string {
	return g.Base + "/ipfs/" + string(h)
}

// Get fetches the raw block h and checks the bytes against the CID.
func (g *Gateway) Get(ctx context.Context, h storage.Handle) ([]byte, error) {
	b, err := g.fetch(ctx, h, "application/vnd.ipld.raw")
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(string(h), b) {
		return nil, storage.ErrHandleMismatch
	}
	return b, nil
}

// GetFile fetches h as a file, the way a browser would. The gateway
// assembles the file from its blocks, so the bytes are not checked against
// the CID.
func (g *Gateway) GetFile(ctx context.Context, h storage.Handle) ([]byte, error) {
	return g.fetch(ctx, h, "")
}

func (g *Gateway) fetch(ctx context.Context, h storage.Handle, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(h), nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("ipfs gateway: %s: %s", g.URL(h), resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ipfs gateway: %w", err)
	}
	if len(b) > maxObjectBytes {
		return nil, fmt.Errorf("ipfs gateway: object larger than %d bytes", maxObjectBytes)
	}
	return b, nil
}
