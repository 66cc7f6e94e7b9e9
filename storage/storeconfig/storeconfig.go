// Package storeconfig opens one or more registered content-store backends
// from configuration.
package storeconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
)

// Config describes how to open one or more backends via the registry.
// Callers still need to link desired backends via blank imports.
//
// WritePolicy values:
//   - "first" (default): write only to the first backend; reads fall back in order
//   - "all": write to all backends and require equal handles (see storage.ReplicatingStore)
//
// Example:
//
//	write_policy: all
//	backends:
//	  - name: localfs
//	    config: {localfs-dir: /var/lib/anchor/store}
//	  - name: ipfs
//	    config: {ipfs-path: /var/lib/ipfs, pin: "true"}
type Config struct {
	WritePolicy string          `yaml:"write_policy,omitempty" json:"write_policy,omitempty"`
	Backends    []BackendConfig `yaml:"backends" json:"backends"`
}

type BackendConfig struct {
	// Name is the registry backend name to open (e.g. "grpc", "localfs", "ipfs").
	Name string `yaml:"name" json:"name"`
	// ID is an optional stable alias used in per-backend handle maps.
	// If empty, Name is used.
	ID     string            `yaml:"id,omitempty" json:"id,omitempty"`
	Config map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a YAML (or JSON) store configuration.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("storeconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("storeconfig: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("storeconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("storeconfig: backend name is required")
		}
		id := b.id()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("storeconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("storeconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Opened is the result of Config.Open.
type Opened struct {
	// Store is used for writes and ordered reads.
	Store storage.Store
	// Backends lists every opened backend in configured order.
	Backends []storage.NamedStore

	closers []func() error
}

// Resolver returns a router that maps each backend kind to the first
// configured backend of that kind, defaulting to Store.
func (o *Opened) Resolver() storage.Router {
	r := storage.Router{Stores: map[string]storage.Store{}, Default: o.Store}
	for _, b := range o.Backends {
		if _, ok := r.Stores[b.Store.Kind()]; !ok {
			r.Stores[b.Store.Kind()] = b.Store
		}
	}
	return r
}

// Close closes backends in reverse order and returns the first error.
func (o *Opened) Close() error {
	var firstErr error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.closers = nil
	return firstErr
}

// Open opens stores per config.
//
// If preferredBackend is non-empty, backends are reordered so preferredBackend
// is first (and thus used for writes when WritePolicy=="first").
func (c Config) Open(usage registry.Usage, preferredBackend string) (*Opened, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferredBackend != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferredBackend || ordered[i].ID == preferredBackend {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("storeconfig: preferred backend %q not found in config", preferredBackend)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	o := &Opened{}
	for _, b := range ordered {
		s, closeFn, err := registry.Open(b.Name, usage, b.Config)
		if err != nil {
			_ = o.Close()
			return nil, fmt.Errorf("storeconfig: %s: %w", b.id(), err)
		}
		o.Backends = append(o.Backends, storage.NamedStore{Name: b.id(), Store: s})
		if closeFn != nil {
			o.closers = append(o.closers, closeFn)
		}
	}

	if len(o.Backends) == 1 {
		o.Store = o.Backends[0].Store
		return o, nil
	}

	switch c.WritePolicy {
	case "", "first":
		stores := make([]storage.Store, 0, len(o.Backends))
		for _, n := range o.Backends {
			stores = append(stores, n.Store)
		}
		o.Store = storage.MultiStore{Stores: stores}
	case "all":
		o.Store = storage.ReplicatingStore{Backends: o.Backends}
	}
	return o, nil
}
