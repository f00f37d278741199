package primitive

import (
	"database/sql"
	"fmt"
	"slices"
)

// Pair holds the two interchangeable implementations of one primitive.
type Pair struct {
	Blocking    any
	Cooperative any
}

// Entry binds a primitive name to its implementations.
//
// Installed, when set, reports whether the primitive exists in the running
// process. A nil Installed means always installed.
type Entry struct {
	Name      Name
	Pair      Pair
	Installed func() bool
}

// Registry is the static primitive table. Build it with [NewRegistry].
type Registry struct {
	entries map[Name]Entry
}

// NewRegistry validates entries and returns a registry covering the
// whole closed set. Every name must appear exactly once with both
// implementations present.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[Name]Entry, len(entries))}
	for _, e := range entries {
		if !e.Name.Valid() {
			return nil, &UnknownPrimitiveError{Name: e.Name}
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("primitive: duplicate entry for %q", e.Name)
		}
		if e.Pair.Blocking == nil || e.Pair.Cooperative == nil {
			return nil, fmt.Errorf("primitive: entry %q needs both implementations", e.Name)
		}
		r.entries[e.Name] = e
	}
	for _, n := range closedSet {
		if _, ok := r.entries[n]; !ok {
			return nil, fmt.Errorf("primitive: missing entry for %q", n)
		}
	}
	return r, nil
}

// MustRegistry is like [NewRegistry] but panics on error.
func MustRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the implementation pair for name.
func (r *Registry) Lookup(name Name) (Pair, error) {
	e, ok := r.entries[name]
	if !ok {
		return Pair{}, &UnknownPrimitiveError{Name: name}
	}
	return e.Pair, nil
}

// Installed reports whether name is present in the running process.
// Unknown names are never installed.
func (r *Registry) Installed(name Name) bool {
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	return e.Installed == nil || e.Installed()
}

// InstalledSet returns every installed primitive.
func (r *Registry) InstalledSet() Set {
	s := make(Set, len(r.entries))
	for _, n := range closedSet {
		if r.Installed(n) {
			s.Add(n)
		}
	}
	return s
}

// DriverInstalled returns an Installed probe for a database/sql driver.
func DriverInstalled(driver string) func() bool {
	return func() bool {
		return slices.Contains(sql.Drivers(), driver)
	}
}
