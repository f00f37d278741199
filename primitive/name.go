package primitive

import (
	"sort"
	"strings"
)

// Name identifies a substitutable primitive.
type Name string

const (
	OS         Name = "os"
	Select     Name = "select"
	Socket     Name = "socket"
	Thread     Name = "thread"
	Time       Name = "time"
	Subprocess Name = "subprocess"
	SSL        Name = "ssl"

	// Optional database drivers. They only count as installed when the
	// matching database/sql driver is registered in the process.
	Psycopg Name = "psycopg"
	MySQLdb Name = "MySQLdb"
)

// Wildcard is the activation key that selects every installed primitive.
const Wildcard = "all"

var closedSet = [...]Name{OS, Select, Socket, Thread, Time, Subprocess, SSL, Psycopg, MySQLdb}

// Names returns the closed set of primitive names in declaration order.
func Names() []Name {
	out := make([]Name, len(closedSet))
	copy(out, closedSet[:])
	return out
}

// Valid reports whether n belongs to the closed set.
func (n Name) Valid() bool {
	for _, c := range closedSet {
		if c == n {
			return true
		}
	}
	return false
}

// Parse maps a configuration key to a primitive name. Matching is
// case-insensitive because config loaders fold keys to lower case.
// The wildcard key is not a primitive name and is rejected.
func Parse(key string) (Name, bool) {
	for _, c := range closedSet {
		if strings.EqualFold(string(c), key) {
			return c, true
		}
	}
	return "", false
}

// Set is an unordered set of primitive names.
type Set map[Name]struct{}

// NewSet returns a set holding names.
func NewSet(names ...Name) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(n Name)      { s[n] = struct{}{} }
func (s Set) Remove(n Name)   { delete(s, n) }
func (s Set) Has(n Name) bool { _, ok := s[n]; return ok }
func (s Set) Len() int        { return len(s) }

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Equal reports whether s and o hold the same names.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for n := range s {
		if !o.Has(n) {
			return false
		}
	}
	return true
}

// Sorted returns the names in lexical order.
func (s Set) Sorted() []Name {
	out := make([]Name, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	names := s.Sorted()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ",")
}
