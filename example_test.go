package greenpatch_test

import (
	"context"
	"fmt"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/primitive"
	"github.com/baxromumarov/greenpatch/providers"
	"github.com/baxromumarov/greenpatch/tpool"
)

func ExampleEnvironment_Activate() {
	rt, err := providers.Setup(context.Background(), nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	active, err := rt.Env.Activate()
	fmt.Println(active, err)
	// Output: os,select,socket,time <nil>
}

func ExampleEnvironment_Activate_unknownKey() {
	rt, _ := providers.Setup(context.Background(), nil)

	_, err := rt.Env.Activate(greenpatch.Patch("finagle", true))
	key, _ := greenpatch.OptionOf(err)
	fmt.Println(key)
	// Output: finagle
}

func ExampleEnvironment_LoadIsolated() {
	cat := greenpatch.NewCatalog()
	cat.MustRegister("client", func(ns *greenpatch.Namespace) (any, error) {
		clock, err := greenpatch.Lookup[primitive.Clock](ns, primitive.Time)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%T", clock), nil
	})

	rt, _ := providers.Setup(context.Background(), []greenpatch.Option{greenpatch.WithCatalog(cat)})

	ambient, _ := rt.Env.Import("client")
	patched, _ := rt.Env.ImportPatched("client", nil)
	fmt.Println(ambient.Value)
	fmt.Println(patched.Value)
	fmt.Println(rt.Env.IsActive(primitive.Time))
	// Output:
	// providers.BlockingClock
	// *providers.CooperativeClock
	// false
}

func ExampleOriginalOf() {
	rt, _ := providers.Setup(context.Background(), []greenpatch.Option{greenpatch.WithEagerOriginals()})
	pool, _ := tpool.FromEnvironment(rt.Env)
	defer pool.Killall()

	_, _ = rt.Env.Activate(greenpatch.Patch("thread", true))

	name, _ := tpool.Call(context.Background(), pool, func() (string, error) {
		return "ran on a native worker", nil
	})
	fmt.Println(name)
	// Output: ran on a native worker
}
