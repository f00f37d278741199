package primitive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct{ name string }

func fullEntries() []Entry {
	entries := make([]Entry, 0, len(closedSet))
	for _, n := range closedSet {
		entries = append(entries, Entry{
			Name: n,
			Pair: Pair{Blocking: stub{"blocking"}, Cooperative: stub{"cooperative"}},
		})
	}
	return entries
}

func TestParse(t *testing.T) {
	n, ok := Parse("MySQLdb")
	require.True(t, ok)
	assert.Equal(t, MySQLdb, n)

	n, ok = Parse("mysqldb")
	require.True(t, ok, "keys folded to lower case must still match")
	assert.Equal(t, MySQLdb, n)

	_, ok = Parse(Wildcard)
	assert.False(t, ok, "the wildcard is not a primitive")

	_, ok = Parse("gevent")
	assert.False(t, ok)
}

func TestNamesIsACopy(t *testing.T) {
	names := Names()
	require.Len(t, names, 9)
	names[0] = "mutated"
	assert.Equal(t, OS, Names()[0])
}

func TestSetOperations(t *testing.T) {
	s := NewSet(Time, OS)
	s.Add(Socket)
	assert.True(t, s.Has(Socket))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "os,socket,time", s.String())

	c := s.Clone()
	c.Remove(OS)
	assert.True(t, s.Has(OS), "clone must not share storage")
	assert.False(t, s.Equal(c))
	assert.True(t, NewSet(Socket, Time).Equal(c))
	assert.Equal(t, []Name{Socket, Time}, c.Sorted())
}

func TestNewRegistryCoversClosedSet(t *testing.T) {
	reg, err := NewRegistry(fullEntries()...)
	require.NoError(t, err)

	pair, err := reg.Lookup(Thread)
	require.NoError(t, err)
	assert.Equal(t, stub{"blocking"}, pair.Blocking)
	assert.Equal(t, stub{"cooperative"}, pair.Cooperative)
	assert.True(t, reg.InstalledSet().Equal(NewSet(Names()...)))
}

func TestNewRegistryRejectsGaps(t *testing.T) {
	entries := fullEntries()

	_, err := NewRegistry(entries[1:]...)
	assert.ErrorContains(t, err, `missing entry for "os"`)

	_, err = NewRegistry(append(entries, entries[0])...)
	assert.ErrorContains(t, err, "duplicate entry")

	bad := fullEntries()
	bad[2].Pair.Cooperative = nil
	_, err = NewRegistry(bad...)
	assert.ErrorContains(t, err, "needs both implementations")

	_, err = NewRegistry(append(fullEntries(), Entry{Name: "gevent", Pair: Pair{Blocking: 1, Cooperative: 2}})...)
	assert.True(t, errors.Is(err, ErrUnknownPrimitive))

	assert.Panics(t, func() { MustRegistry() })
}

func TestInstalledProbe(t *testing.T) {
	entries := fullEntries()
	for i := range entries {
		if entries[i].Name == MySQLdb {
			entries[i].Installed = DriverInstalled("definitely-not-registered")
		}
	}
	reg := MustRegistry(entries...)

	assert.False(t, reg.Installed(MySQLdb))
	assert.True(t, reg.Installed(Psycopg))
	assert.False(t, reg.Installed("gevent"))
	assert.False(t, reg.InstalledSet().Has(MySQLdb))

	_, err := reg.Lookup("gevent")
	var ue *UnknownPrimitiveError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, Name("gevent"), ue.Name)
}
