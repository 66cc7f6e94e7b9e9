// Package blockfrost implements ledger.Ledger over the Blockfrost REST API.
package blockfrost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
)

// Blockfrost allows 10 requests per second with a burst of 500.
const (
	rateLimit = rate.Limit(10)
	rateBurst = 500
)

// pageSize is the number of items Blockfrost returns per page by default.
const pageSize = 100

const maxResponseBytes = 8 << 20

// BaseURLs maps networks to API roots.
var BaseURLs = map[ledger.Network]string{
	ledger.Mainnet: "https://cardano-mainnet.blockfrost.io/api/v0",
	ledger.Preprod: "https://cardano-preprod.blockfrost.io/api/v0",
	ledger.Preview: "https://cardano-preview.blockfrost.io/api/v0",
}

// Client talks to one Blockfrost project.
type Client struct {
	BaseURL   string
	ProjectID string
	HTTP      *http.Client
	Limiter   *rate.Limiter
}

var _ ledger.Ledger = (*Client)(nil)

// New returns a client for network authenticated by projectID.
func New(network ledger.Network, projectID string) (*Client, error) {
	base, ok := BaseURLs[network]
	if !ok {
		return nil, fmt.Errorf("blockfrost: unsupported network %q", network)
	}
	if projectID == "" {
		return nil, errors.New("blockfrost: project id is required")
	}
	return &Client{
		BaseURL:   base,
		ProjectID: projectID,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Limiter:   rate.NewLimiter(rateLimit, rateBurst),
	}, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int    `json:"status_code"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("blockfrost: %d %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("blockfrost: %d %s: %s", e.Status, e.Kind, e.Message)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, int, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, rd)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("project_id", c.ProjectID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	log.Tracef("%s %s", method, path)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Kind: http.StatusText(resp.StatusCode)}
		_ = json.Unmarshal(b, apiErr)
		apiErr.Status = resp.StatusCode
		return nil, resp.StatusCode, apiErr
	}
	return b, resp.StatusCode, nil
}

type amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type utxo struct {
	TxHash      string   `json:"tx_hash"`
	OutputIndex uint32   `json:"output_index"`
	Amount      []amount `json:"amount"`
}

// ListSpendable pages through the UTxOs at addr. Outputs that carry native
// assets are skipped: spending them would require reproducing the assets in
// the change output.
func (c *Client) ListSpendable(ctx context.Context, addr ledger.Address) ([]ledger.Input, error) {
	var out []ledger.Input
	for page := 1; ; page++ {
		path := fmt.Sprintf("/addresses/%s/utxos?page=%d", addr, page)
		b, status, err := c.do(ctx, http.MethodGet, path, "", nil)
		if status == http.StatusNotFound {
			// Addresses that have never received funds are unknown.
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var items []utxo
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("blockfrost: decode utxos: %w", err)
		}
		for _, u := range items {
			in, ok, err := u.input(addr)
			if err != nil {
				return nil, err
			}
			if !ok {
				log.Debugf("skipping %s#%d: carries native assets", u.TxHash, u.OutputIndex)
				continue
			}
			out = append(out, in)
		}
		if len(items) < pageSize {
			return out, nil
		}
	}
}

func (u utxo) input(addr ledger.Address) (ledger.Input, bool, error) {
	id, err := ledger.ParseTxID(u.TxHash)
	if err != nil {
		return ledger.Input{}, false, fmt.Errorf("blockfrost: utxo: %w", err)
	}
	in := ledger.Input{Ref: ledger.OutRef{TxID: id, Index: u.OutputIndex}, Address: addr}
	for _, a := range u.Amount {
		if a.Unit != "lovelace" {
			return ledger.Input{}, false, nil
		}
		q, err := strconv.ParseUint(a.Quantity, 10, 64)
		if err != nil {
			return ledger.Input{}, false, fmt.Errorf("blockfrost: utxo %s#%d: quantity %q: %w", u.TxHash, u.OutputIndex, a.Quantity, err)
		}
		in.Amount += q
	}
	return in, true, nil
}

// Submit posts the signed transaction. Rate limiting, early submission
// (425), server errors and transport failures are transient; any other
// rejection is final.
func (c *Client) Submit(ctx context.Context, tx []byte) (ledger.TxID, error) {
	b, status, err := c.do(ctx, http.MethodPost, "/tx/submit", "application/cbor", tx)
	if err != nil {
		return ledger.TxID{}, classify(status, err)
	}
	var hash string
	if err := json.Unmarshal(b, &hash); err != nil {
		return ledger.TxID{}, fmt.Errorf("blockfrost: decode submit response: %w", err)
	}
	return ledger.ParseTxID(hash)
}

func classify(status int, err error) error {
	se := &ledger.SubmissionError{Status: status, Err: err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		se.Reason = apiErr.Message
		if se.Reason == "" {
			se.Reason = apiErr.Kind
		}
	}
	switch {
	case status == 0:
		se.Transient = !errors.Is(err, context.Canceled)
	case status == http.StatusTooEarly, status == http.StatusTooManyRequests, status >= 500:
		se.Transient = true
	case strings.Contains(se.Reason, "BadInputsUTxO"):
		se.Err = fmt.Errorf("%w: %v", ledger.ErrDoubleSpend, err)
	}
	return se
}

type metadataItem struct {
	Label        string          `json:"label"`
	JSONMetadata json.RawMessage `json:"json_metadata"`
}

// FetchMetadata returns the metadata of tx in label order.
func (c *Client) FetchMetadata(ctx context.Context, tx ledger.TxID) ([]ledger.MetadataEntry, error) {
	b, status, err := c.do(ctx, http.MethodGet, "/txs/"+tx.String()+"/metadata", "", nil)
	if status == http.StatusNotFound {
		return nil, ledger.ErrTxNotFound
	}
	if err != nil {
		return nil, err
	}
	var items []metadataItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("blockfrost: decode metadata: %w", err)
	}
	out := make([]ledger.MetadataEntry, 0, len(items))
	for _, it := range items {
		label, err := strconv.ParseUint(it.Label, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("blockfrost: metadata label %q: %w", it.Label, err)
		}
		dec := json.NewDecoder(bytes.NewReader(it.JSONMetadata))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("blockfrost: metadata %d: %w", label, err)
		}
		out = append(out, ledger.MetadataEntry{Label: label, Value: normalize(v)})
	}
	return out, nil
}

// normalize turns integral json.Numbers into int64 so values compare the
// same as metadata decoded from transaction bytes.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	default:
		return v
	}
}

type epochParams struct {
	MinFeeA          uint64      `json:"min_fee_a"`
	MinFeeB          uint64      `json:"min_fee_b"`
	MaxTxSize        int         `json:"max_tx_size"`
	CoinsPerUTxOSize json.Number `json:"coins_per_utxo_size"`
}

// ProtocolParams returns the parameters of the latest epoch.
func (c *Client) ProtocolParams(ctx context.Context) (ledger.Params, error) {
	b, _, err := c.do(ctx, http.MethodGet, "/epochs/latest/parameters", "", nil)
	if err != nil {
		return ledger.Params{}, err
	}
	var ep epochParams
	if err := json.Unmarshal(b, &ep); err != nil {
		return ledger.Params{}, fmt.Errorf("blockfrost: decode parameters: %w", err)
	}
	p := ledger.Params{MinFeeA: ep.MinFeeA, MinFeeB: ep.MinFeeB, MaxTxSize: ep.MaxTxSize}
	if ep.CoinsPerUTxOSize != "" {
		n, err := strconv.ParseUint(string(ep.CoinsPerUTxOSize), 10, 64)
		if err != nil {
			return ledger.Params{}, fmt.Errorf("blockfrost: coins_per_utxo_size: %w", err)
		}
		p.CoinsPerUTxOByte = n
	}
	return p, p.Validate()
}

// Tip is the latest block as reported by /blocks/latest.
type Tip struct {
	Hash   string `json:"hash"`
	Height uint64 `json:"height"`
	Slot   uint64 `json:"slot"`
	Epoch  uint64 `json:"epoch"`
	Time   int64  `json:"time"`
}

// LatestBlock returns the chain tip. It doubles as a connectivity and
// credentials check.
func (c *Client) LatestBlock(ctx context.Context) (Tip, error) {
	var tip Tip
	b, _, err := c.do(ctx, http.MethodGet, "/blocks/latest", "", nil)
	if err != nil {
		return tip, err
	}
	if err := json.Unmarshal(b, &tip); err != nil {
		return tip, fmt.Errorf("blockfrost: decode block: %w", err)
	}
	return tip, nil
}
