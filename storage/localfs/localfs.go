// Package localfs implements a local filesystem content store.
package localfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
)

// Kind is recorded on chain for payloads held by this backend.
const Kind = "localfs"

func init() {
	registry.MustRegister(registry.Backend{
		Name:        Kind,
		Description: "Local filesystem content store (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Keys: []registry.Key{
			{Name: "localfs-dir", Help: "store directory", Required: true},
		},
		Open: func(cfg map[string]string) (storage.Store, func() error, error) {
			s, err := New(cfg["localfs-dir"])
			return s, nil, err
		},
	})
}

// Store is a local filesystem-backed content store.
//
// Objects are stored immutably and keyed strictly by CID. It never uses the
// network and never depends on wall-clock time. Tags are not persisted.
type Store struct {
	root string
}

var _ storage.Store = (*Store)(nil)

// New constructs a filesystem store rooted at root. The directory will be
// created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

func (s *Store) Kind() string { return Kind }

func (s *Store) Put(ctx context.Context, data []byte, _ storage.Tags) (storage.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := storage.Handle(cidutil.String(data))
	if h == "" {
		return "", storage.ErrInvalidHandle
	}

	path := s.pathFor(h)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := os.ReadFile(path)
			if rerr != nil || !bytes.Equal(existing, data) {
				// Never repair or overwrite an object already on disk.
				return "", storage.ErrImmutable
			}
			return h, nil
		}
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return h, nil
}

// Get returns the object stored for h. Objects whose bytes no longer hash to
// h are reported as storage.ErrHandleMismatch.
func (s *Store) Get(ctx context.Context, h storage.Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := cidutil.Parse(string(h)); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidHandle, err)
	}
	b, err := os.ReadFile(s.pathFor(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if !cidutil.Matches(string(h), b) {
		return nil, storage.ErrHandleMismatch
	}
	return b, nil
}

func (s *Store) URL(h storage.Handle) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(s.pathFor(h))}
	return u.String()
}

func (s *Store) pathFor(h storage.Handle) string {
	str := string(h)
	if len(str) < 2 {
		return filepath.Join(s.root, str)
	}
	return filepath.Join(s.root, str[:2], str)
}
