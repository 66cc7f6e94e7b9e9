package storage

import "fmt"

// Router resolves stores by the kind recorded alongside an anchored handle.
//
// Records written before kinds were recorded carry an empty kind; those are
// served by Default.
type Router struct {
	Stores  map[string]Store
	Default Store
}

var _ Resolver = Router{}

func (r Router) Resolve(kind string) (Store, error) {
	if kind != "" {
		if s, ok := r.Stores[kind]; ok && s != nil {
			return s, nil
		}
		if r.Default != nil && r.Default.Kind() == kind {
			return r.Default, nil
		}
		return nil, fmt.Errorf("%w %q", ErrNoBackend, kind)
	}
	if r.Default == nil {
		return nil, fmt.Errorf("%w: no default store", ErrNoBackend)
	}
	return r.Default, nil
}

// Single resolves every kind to s.
type Single struct{ Store Store }

func (s Single) Resolve(string) (Store, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("%w: no store configured", ErrNoBackend)
	}
	return s.Store, nil
}
