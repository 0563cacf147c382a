package source

import (
	"fmt"
	"sort"
)

// Registry holds the available source profiles keyed by ID.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry builds a registry with every built-in source.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]*Profile)}
	for _, p := range []*Profile{
		ElEspectador(),
		ElTiempo(),
		ElPais(),
		BluRadio(),
		SillaVacia(),
		ElNuevoSiglo(),
	} {
		r.profiles[p.ID] = p
	}
	return r
}

// NewRegistryWith builds a registry from explicit profiles.
func NewRegistryWith(profiles ...*Profile) *Registry {
	r := &Registry{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

// Get returns the profile for an ID.
func (r *Registry) Get(id string) (*Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (known: %v)", id, r.IDs())
	}
	return p, nil
}

// All returns every profile sorted by ID.
func (r *Registry) All() []*Profile {
	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the sorted profile IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
