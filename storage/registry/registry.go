// Package registry holds the content-store backends linked into a binary.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// Key documents one backend configuration key.
type Key struct {
	Name     string
	Help     string
	Required bool
}

// Backend is a build-time plugin that can open a storage.Store.
//
// Backends typically register themselves in init():
//
//	registry.MustRegister(registry.Backend{ ... })
type Backend struct {
	Name        string
	Description string
	Usage       Usage
	Keys        []Key

	// Open constructs the store from backend-specific key/value config.
	// It returns an optional close function.
	Open func(cfg map[string]string) (storage.Store, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("registry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("registry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// Lookup returns the named backend.
func Lookup(name string) (Backend, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := backends[name]
	return b, ok
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// Open opens the named backend if it exists and matches usage.
//
// Keys not documented by the backend are rejected so that typos surface
// before any store is touched.
func Open(name string, usage Usage, cfg map[string]string) (storage.Store, func() error, error) {
	b, ok := Lookup(name)
	if !ok {
		return nil, nil, fmt.Errorf("registry: unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("registry: backend %q not supported in this binary", name)
	}
	if err := b.check(cfg); err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		cfg = map[string]string{}
	}
	return b.Open(cfg)
}

func (b Backend) check(cfg map[string]string) error {
	if len(b.Keys) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(b.Keys))
	for _, k := range b.Keys {
		known[k.Name] = struct{}{}
		if k.Required && cfg[k.Name] == "" {
			return fmt.Errorf("registry: backend %q: missing %q", b.Name, k.Name)
		}
	}
	for k := range cfg {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("registry: backend %q: unknown key %q", b.Name, k)
		}
	}
	return nil
}
