package greenpatch

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/greenpatch/primitive"
)

// socketUnit records the socket implementation it saw at load time.
func socketUnit(ns *Namespace) (any, error) {
	impl, err := ns.Resolve(primitive.Socket)
	if err != nil {
		return nil, err
	}
	ns.Set("socket", impl)
	return impl, nil
}

func newLoaderEnv(t *testing.T, opts ...Option) *Environment {
	t.Helper()
	cat := NewCatalog()
	cat.MustRegister("client", socketUnit)
	cat.MustRegister("app", func(ns *Namespace) (any, error) {
		dep, err := ns.Require("client")
		if err != nil {
			return nil, err
		}
		ns.Set("client", dep)
		return dep.Value, nil
	})
	cat.MustRegister("broken", func(*Namespace) (any, error) {
		return nil, errBroken
	})
	cat.MustRegister("panicky", func(*Namespace) (any, error) {
		panic("unit exploded")
	})
	return newTestEnv(t, append(opts, WithCatalog(cat))...)
}

var errBroken = errors.New("broken unit")

func TestImportIsCached(t *testing.T) {
	env := newLoaderEnv(t)

	first, err := env.Import("client")
	require.NoError(t, err)
	second, err := env.Import("client")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.False(t, first.Isolated)
	assert.True(t, env.Imported("client"))
	assert.Equal(t, blocking(primitive.Socket), first.Value)
}

func TestLoadIsolatedUsesOverrides(t *testing.T) {
	m := &recordingMetrics{}
	env := newLoaderEnv(t, WithMetrics(m))

	override := impl{name: primitive.Socket, kind: "override"}
	a, err := env.LoadIsolated("client", map[primitive.Name]any{primitive.Socket: override})
	require.NoError(t, err)
	b, err := env.LoadIsolated("client", map[primitive.Name]any{primitive.Socket: override})
	require.NoError(t, err)

	assert.Equal(t, override, a.Value)
	assert.True(t, a.Isolated)
	assert.NotSame(t, a, b, "isolated loads are independent instances")
	assert.NotEqual(t, a.ID, b.ID)

	assert.False(t, env.Imported("client"), "isolated loads never enter the module table")
	assert.Zero(t, env.ActiveNames().Len(), "isolated loads never activate anything")
	impl, err := env.Resolve(primitive.Socket)
	require.NoError(t, err)
	assert.Equal(t, blocking(primitive.Socket), impl)

	assert.Equal(t, 2, m.loads["client/isolated"])
}

func TestLoadIsolatedPropagatesToDependencies(t *testing.T) {
	env := newLoaderEnv(t)

	override := impl{name: primitive.Socket, kind: "override"}
	mod, err := env.LoadIsolated("app", map[primitive.Name]any{primitive.Socket: override})
	require.NoError(t, err)

	assert.Equal(t, override, mod.Value)
	dep, ok := mod.Namespace.Get("client").(*Module)
	require.True(t, ok)
	assert.True(t, dep.Isolated)
	assert.False(t, env.Imported("client"))
}

func TestLoadIsolatedErrors(t *testing.T) {
	env := newLoaderEnv(t)

	_, err := env.LoadIsolated("broken", nil)
	assert.Same(t, errBroken, err, "unit errors pass through unchanged")

	_, err = env.LoadIsolated("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = env.LoadIsolated("client", map[primitive.Name]any{"gevent": 1})
	assert.ErrorIs(t, err, primitive.ErrUnknownPrimitive)

	assert.PanicsWithValue(t, "unit exploded", func() {
		_, _ = env.LoadIsolated("panicky", nil)
	})
}

func TestImportPatchedDefaults(t *testing.T) {
	env := newLoaderEnv(t)

	mod, err := env.ImportPatched("client", nil)
	require.NoError(t, err)
	assert.Equal(t, cooperative(primitive.Socket), mod.Value)

	for _, n := range []primitive.Name{primitive.OS, primitive.Select, primitive.Socket, primitive.Thread, primitive.Time} {
		impl, err := mod.Namespace.Resolve(n)
		require.NoError(t, err)
		assert.Equal(t, cooperative(n), impl, n)
	}
	impl, err := mod.Namespace.Resolve(primitive.SSL)
	require.NoError(t, err)
	assert.Equal(t, blocking(primitive.SSL), impl, "unlisted dependencies resolve ambiently")
}

func TestInjectMergesIntoTarget(t *testing.T) {
	env := newLoaderEnv(t)
	target := NewNamespace(env)
	target.Set("existing", 1)

	require.NoError(t, env.Inject("client", target, nil))

	assert.Equal(t, []string{"existing", "socket"}, target.Keys())
	assert.Equal(t, cooperative(primitive.Socket), target.Get("socket"))
	impl, err := target.Resolve(primitive.Thread)
	require.NoError(t, err)
	assert.Equal(t, cooperative(primitive.Thread), impl)

	assert.Same(t, errBroken, env.Inject("broken", target, nil))
	assert.Panics(t, func() { _ = env.Inject("client", nil, nil) })
}

func TestCatalog(t *testing.T) {
	cat := NewCatalog()
	require.NoError(t, cat.Register("b", socketUnit))
	require.NoError(t, cat.Register("a", socketUnit))
	assert.ErrorIs(t, cat.Register("a", socketUnit), ErrDuplicateUnit)
	assert.Equal(t, []string{"a", "b"}, cat.Names())

	_, ok := cat.Lookup("c")
	assert.False(t, ok)
}

func TestNamespaceWithoutLoader(t *testing.T) {
	ns := NewNamespace(nil)
	_, err := ns.Require("client")
	assert.ErrorIs(t, err, ErrUnknownUnit)
	_, err = ns.Resolve(primitive.OS)
	assert.ErrorIs(t, err, primitive.ErrUnknownPrimitive)

	ns.Override(primitive.OS, "handle")
	v, err := ns.Resolve(primitive.OS)
	require.NoError(t, err)
	assert.Equal(t, "handle", v)
	_, ok := ns.Lookup("nothing")
	assert.False(t, ok)
}

func TestIsolatedLoadsKeepSeparateState(t *testing.T) {
	env := newLoaderEnv(t)

	first := impl{name: primitive.Socket, kind: "first"}
	second := impl{name: primitive.Socket, kind: "second"}
	a, err := env.LoadIsolated("client", map[primitive.Name]any{primitive.Socket: first})
	require.NoError(t, err)
	b, err := env.LoadIsolated("client", map[primitive.Name]any{primitive.Socket: second})
	require.NoError(t, err)

	assert.Equal(t, first, a.Value)
	assert.Equal(t, second, b.Value)
	assert.Equal(t, first, a.Namespace.Get("socket"))
	assert.Equal(t, second, b.Namespace.Get("socket"))

	a.Namespace.Set("socket", "replaced")
	a.Namespace.Set("only-a", true)
	assert.Equal(t, second, b.Namespace.Get("socket"))
	_, ok := b.Namespace.Lookup("only-a")
	assert.False(t, ok)

	assert.Zero(t, env.ActiveNames().Len())
	assert.False(t, env.Imported("client"))
}

func TestConcurrentImportRunsOnce(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	cat := NewCatalog()
	cat.MustRegister("slow", func(*Namespace) (any, error) {
		runs.Add(1)
		<-release
		return "ready", nil
	})
	env := newTestEnv(t, WithCatalog(cat))

	const n = 8
	mods := make([]*Module, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mod, err := env.Import("slow")
			assert.NoError(t, err)
			mods[i] = mod
		}()
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for _, mod := range mods {
		assert.Same(t, mods[0], mod)
	}
}

func TestFailedImportIsRetried(t *testing.T) {
	var runs atomic.Int32
	cat := NewCatalog()
	cat.MustRegister("flaky", func(*Namespace) (any, error) {
		if runs.Add(1) == 1 {
			return nil, errBroken
		}
		return "ok", nil
	})
	env := newTestEnv(t, WithCatalog(cat))

	_, err := env.Import("flaky")
	assert.Same(t, errBroken, err)
	assert.False(t, env.Imported("flaky"))

	mod, err := env.Import("flaky")
	require.NoError(t, err)
	assert.Equal(t, "ok", mod.Value)
	assert.True(t, env.Imported("flaky"))
}

func TestImportPanicIsNotCached(t *testing.T) {
	env := newLoaderEnv(t)

	for range 2 {
		assert.PanicsWithValue(t, "unit exploded", func() {
			_, _ = env.Import("panicky")
		})
	}
	assert.False(t, env.Imported("panicky"))
}

func TestRequireCycle(t *testing.T) {
	cat := NewCatalog()
	cat.MustRegister("a", func(ns *Namespace) (any, error) {
		_, err := ns.Require("b")
		return nil, err
	})
	cat.MustRegister("b", func(ns *Namespace) (any, error) {
		_, err := ns.Require("a")
		return nil, err
	})
	cat.MustRegister("self", func(ns *Namespace) (any, error) {
		_, err := ns.Require("self")
		return nil, err
	})
	env := newTestEnv(t, WithCatalog(cat))

	_, err := env.Import("a")
	require.ErrorIs(t, err, ErrImportCycle)
	var cycle *ImportCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Units)
	assert.False(t, env.Imported("a"))
	assert.False(t, env.Imported("b"))

	_, err = env.LoadIsolated("self", nil)
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"self", "self"}, cycle.Units)
	assert.EqualError(t, err, "greenpatch: import cycle: self -> self")

	_, err = env.ImportPatched("b", nil)
	assert.ErrorIs(t, err, ErrImportCycle)
}
