// Package evidence packs anchors and their content into a self-contained
// TAR bundle that can be checked without network access.
//
// A bundle holds index.json, listing each anchor's transaction id, label and
// record, plus the stored payload of each anchor under content/<handle>.
// Bundle bytes are deterministic: entries are sorted and TAR headers are
// normalized.
package evidence

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/verify"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const (
	indexPath     = "index.json"
	contentPrefix = "content/"
)

var epoch0 = time.Unix(0, 0).UTC()

var (
	ErrNoIndex         = errors.New("evidence: bundle has no index.json")
	ErrMissingContent  = errors.New("evidence: content missing for anchor")
	ErrUnsafeHandle    = errors.New("evidence: handle cannot be used as a bundle path")
	ErrConflictingData = errors.New("evidence: conflicting content for handle")
)

// Entry is one anchor together with its stored payload.
type Entry struct {
	TxID    ledger.TxID   `json:"transaction_id"`
	Label   uint64        `json:"metadata_label"`
	Record  anchor.Record `json:"record"`
	Payload []byte        `json:"-"`
}

// FromAnchor returns the entry for a freshly submitted anchor.
func FromAnchor(res *anchor.Result) Entry {
	return Entry{TxID: res.TxID, Label: res.Label, Record: res.Record, Payload: res.Payload}
}

// FromVerification returns the entry for a verified anchor. Results that
// retrieved no bytes produce an entry without payload, which Export
// rejects.
func FromVerification(res *verify.Result) Entry {
	return Entry{TxID: res.TxID, Label: res.Label, Record: res.Record, Payload: res.Payload}
}

type indexJSON struct {
	Version int          `json:"version"`
	Anchors []indexEntry `json:"anchors"`
}

type indexEntry struct {
	Entry
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// Export writes a bundle holding entries. Entries are ordered by
// transaction id; a transaction listed twice is written once.
func Export(w io.Writer, entries []Entry) error {
	byTx := make(map[ledger.TxID]Entry, len(entries))
	for _, e := range entries {
		if e.Payload == nil {
			return fmt.Errorf("%w %s", ErrMissingContent, e.TxID)
		}
		if !safeHandle(e.Record.StorageHandle) {
			return fmt.Errorf("%w: %q", ErrUnsafeHandle, e.Record.StorageHandle)
		}
		byTx[e.TxID] = e
	}
	ids := make([]ledger.TxID, 0, len(byTx))
	for id := range byTx {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	idx := indexJSON{Version: FormatVersion, Anchors: make([]indexEntry, 0, len(ids))}
	content := map[string][]byte{}
	for _, id := range ids {
		e := byTx[id]
		name := contentPrefix + string(e.Record.StorageHandle)
		if prev, ok := content[name]; ok && !bytes.Equal(prev, e.Payload) {
			return fmt.Errorf("%w %s", ErrConflictingData, e.Record.StorageHandle)
		}
		content[name] = e.Payload
		idx.Anchors = append(idx.Anchors, indexEntry{Entry: e, Content: name, Size: len(e.Payload)})
	}

	names := make([]string, 0, len(content))
	for n := range content {
		names = append(names, n)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	for _, n := range names {
		if err := writeFile(tw, n, content[n]); err != nil {
			_ = tw.Close()
			return err
		}
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeFile(tw, indexPath, append(b, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// ReadOptions controls bundle parsing.
type ReadOptions struct {
	// IgnoreUnknown skips entries other than index.json and content/.
	// By default they are an error.
	IgnoreUnknown bool
}

// Read parses a plain or zstd-compressed bundle and returns its entries in
// index order.
func Read(r io.Reader, opts ReadOptions) ([]Entry, error) {
	r, err := decompress(r)
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(r)
	content := map[string][]byte{}
	var idx *indexJSON

	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("evidence: %w", err)
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, fmt.Errorf("evidence: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return nil, fmt.Errorf("evidence: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		switch {
		case name == indexPath:
			if idx != nil {
				return nil, fmt.Errorf("evidence: duplicate %s", indexPath)
			}
			idx = new(indexJSON)
			if err := json.NewDecoder(tr).Decode(idx); err != nil {
				return nil, fmt.Errorf("evidence: %s: %w", indexPath, err)
			}
			if idx.Version != FormatVersion {
				return nil, fmt.Errorf("evidence: unsupported index version %d", idx.Version)
			}
		case strings.HasPrefix(name, contentPrefix):
			if _, ok := content[name]; ok {
				return nil, fmt.Errorf("evidence: duplicate content entry: %s", name)
			}
			b, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("evidence: %w", err)
			}
			content[name] = b
		default:
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return nil, fmt.Errorf("evidence: unknown entry: %s", name)
		}
	}
	if idx == nil {
		return nil, ErrNoIndex
	}

	out := make([]Entry, 0, len(idx.Anchors))
	for _, a := range idx.Anchors {
		b, ok := content[a.Content]
		if !ok {
			return nil, fmt.Errorf("%w %s (%s)", ErrMissingContent, a.TxID, a.Content)
		}
		e := a.Entry
		e.Payload = b
		out = append(out, e)
	}
	return out, nil
}

// Check recomputes the fingerprint of an entry's payload. Payloads stored
// under a content identifier must also hash to it.
func Check(e Entry) *verify.Result {
	res := verify.Check(e.Record, e.Payload)
	res.TxID, res.Label = e.TxID, e.Label
	if res.Match && isCID(e.Record.StorageHandle) && !cidutil.Matches(string(e.Record.StorageHandle), e.Payload) {
		res.Match = false
		res.State = verify.StateMismatch
		res.Reason = "payload does not hash to its content identifier"
	}
	return res
}

// Import stores every payload in a bundle into s and returns the entries.
// Stores that derive handles from content must reproduce the bundled
// handle.
func Import(ctx context.Context, r io.Reader, s storage.Store) ([]Entry, error) {
	entries, err := Read(r, ReadOptions{})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		h, err := s.Put(ctx, e.Payload, nil)
		if err != nil {
			return nil, err
		}
		if isCID(e.Record.StorageHandle) && h != e.Record.StorageHandle {
			return nil, fmt.Errorf("%w: bundled %s, stored %s", storage.ErrHandleMismatch, e.Record.StorageHandle, h)
		}
	}
	return entries, nil
}

func isCID(h storage.Handle) bool {
	_, err := cidutil.Parse(string(h))
	return err == nil
}

func safeHandle(h storage.Handle) bool {
	s := string(h)
	return s != "" && cleanTarPath(s) == s && !strings.Contains(s, "/")
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return strings.Join(parts, "/")
}
