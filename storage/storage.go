// Package storage defines the content store used to keep proposal payloads
// off-chain.
//
// A Store persists bytes and hands back an opaque Handle that is later used
// to fetch exactly those bytes. Backends live in sub-packages and register
// themselves with storage/registry; storage/storeconfig opens them from
// configuration.
package storage

import "context"

// Handle is an opaque retrieval key returned by Store.Put.
type Handle string

func (h Handle) String() string { return string(h) }

// Tags is pass-through metadata attached to a stored payload (content type,
// application name, title). The anchoring protocol never interprets them.
type Tags map[string]string

// Store persists and retrieves payload bytes.
//
// Contract:
//   - Put returns a handle that Get accepts for as long as the backend keeps
//     the object.
//   - Get returns ErrNotFound when the handle is unknown to the backend.
//   - Get makes no promise that the bytes are the ones written; callers that
//     need integrity verify it themselves.
type Store interface {
	Put(ctx context.Context, data []byte, tags Tags) (Handle, error)
	Get(ctx context.Context, h Handle) ([]byte, error)
	// URL returns a locator a human can open for h.
	URL(h Handle) string
	// Kind names the backend family ("localfs", "ipfs", ...). It is
	// recorded on chain so verifiers know where to look.
	Kind() string
}

// Resolver selects the store that can serve handles of a given kind.
type Resolver interface {
	Resolve(kind string) (Store, error)
}
