package greenpatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/greenpatch/primitive"
)

// impl is a test implementation handle that remembers which side of the
// pair it came from.
type impl struct {
	name primitive.Name
	kind string
}

func blocking(n primitive.Name) impl    { return impl{name: n, kind: "blocking"} }
func cooperative(n primitive.Name) impl { return impl{name: n, kind: "cooperative"} }

// testRegistry covers the closed set with impl handles. Psycopg counts as
// installed, MySQLdb does not.
func testRegistry(t *testing.T) *primitive.Registry {
	t.Helper()
	entries := make([]primitive.Entry, 0, len(primitive.Names()))
	for _, n := range primitive.Names() {
		e := primitive.Entry{
			Name: n,
			Pair: primitive.Pair{Blocking: blocking(n), Cooperative: cooperative(n)},
		}
		if n == primitive.MySQLdb {
			e.Installed = func() bool { return false }
		}
		entries = append(entries, e)
	}
	reg, err := primitive.NewRegistry(entries...)
	require.NoError(t, err)
	return reg
}

func newTestEnv(t *testing.T, opts ...Option) *Environment {
	t.Helper()
	return New(testRegistry(t), opts...)
}

type recordingMetrics struct {
	mu          sync.Mutex
	activations []string
	active      int
	loads       map[string]int
}

func (m *recordingMetrics) RecordActivation(name string) {
	m.mu.Lock()
	m.activations = append(m.activations, name)
	m.mu.Unlock()
}

func (m *recordingMetrics) SetActivePrimitives(n int) {
	m.mu.Lock()
	m.active = n
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordLoad(unit string, isolated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loads == nil {
		m.loads = make(map[string]int)
	}
	key := unit
	if isolated {
		key += "/isolated"
	}
	m.loads[key]++
}
