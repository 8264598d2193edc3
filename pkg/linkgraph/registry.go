package linkgraph

import (
	"maps"
	"slices"

	"github.com/matzehuels/linkgraph/pkg/linkage"
)

// ABI is the ABI class partitioning every graph index.
type ABI = linkage.ABI

// Identity is the (soname, ABI class) pair a shared library advertises.
type Identity struct {
	Soname string `json:"soname"`
	ABI    ABI    `json:"abi"`
}

// Library pairs a registered identity with its providing object path.
type Library struct {
	Soname string `json:"soname"`
	Path   string `json:"path"`
}

// Registry is the bidirectional index between shared-library object paths
// and their (soname, ABI) identities.
//
// There is exactly one provider per identity. When several records claim the
// same identity or the same path, the later-processed record wins without
// error: the registry describes the current installed state, not every
// version ever seen.
type Registry struct {
	PathToIdentity map[string]Identity
	IdentityToPath map[Identity]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		PathToIdentity: make(map[string]Identity),
		IdentityToPath: make(map[Identity]string),
	}
}

// BuildRegistry indexes every record with a non-empty soname. Records of
// plain executables are skipped.
func BuildRegistry(records []linkage.Record) *Registry {
	r := NewRegistry()
	for _, rec := range records {
		if !rec.IsLibrary() {
			continue
		}
		r.Register(rec.Object, Identity{Soname: rec.Soname, ABI: rec.ABI})
	}
	return r
}

// Register records path as the provider of id, overwriting earlier entries
// for either key.
func (r *Registry) Register(path string, id Identity) {
	r.PathToIdentity[path] = id
	r.IdentityToPath[id] = path
}

// Provider returns the object path providing soname within abi.
func (r *Registry) Provider(abi ABI, soname string) (string, bool) {
	p, ok := r.IdentityToPath[Identity{Soname: soname, ABI: abi}]
	return p, ok
}

// Identity returns the identity registered for an object path.
func (r *Registry) Identity(path string) (Identity, bool) {
	id, ok := r.PathToIdentity[path]
	return id, ok
}

// Has reports whether soname has a provider within abi.
func (r *Registry) Has(abi ABI, soname string) bool {
	_, ok := r.IdentityToPath[Identity{Soname: soname, ABI: abi}]
	return ok
}

// Libraries returns the libraries registered for abi sorted by soname.
func (r *Registry) Libraries(abi ABI) []Library {
	var libs []Library
	for id, path := range r.IdentityToPath {
		if id.ABI == abi {
			libs = append(libs, Library{Soname: id.Soname, Path: path})
		}
	}
	slices.SortFunc(libs, func(a, b Library) int {
		if a.Soname < b.Soname {
			return -1
		}
		if a.Soname > b.Soname {
			return 1
		}
		return 0
	})
	return libs
}

// Identities returns all registered identities sorted by ABI, then soname.
func (r *Registry) Identities() []Identity {
	ids := slices.Collect(maps.Keys(r.IdentityToPath))
	slices.SortFunc(ids, func(a, b Identity) int {
		switch {
		case a.ABI != b.ABI:
			if a.ABI < b.ABI {
				return -1
			}
			return 1
		case a.Soname < b.Soname:
			return -1
		case a.Soname > b.Soname:
			return 1
		}
		return 0
	})
	return ids
}

// Len returns the number of registered identities.
func (r *Registry) Len() int { return len(r.IdentityToPath) }
