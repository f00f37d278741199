package providers

import (
	"context"
	"sync"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/green"
	"github.com/baxromumarov/greenpatch/primitive"
	"github.com/baxromumarov/greenpatch/threading"
)

// NewRegistry builds the default primitive table. The thread and time
// primitives are bound to hub and tracker.
func NewRegistry(hub *green.Hub, tracker *threading.Tracker) (*primitive.Registry, error) {
	return primitive.NewRegistry(
		primitive.Entry{Name: primitive.OS, Pair: primitive.Pair{
			Blocking: BlockingOS{}, Cooperative: CooperativeOS{},
		}},
		primitive.Entry{Name: primitive.Select, Pair: primitive.Pair{
			Blocking: BlockingSelector{}, Cooperative: CooperativeSelector{},
		}},
		primitive.Entry{Name: primitive.Socket, Pair: primitive.Pair{
			Blocking: BlockingSockets{}, Cooperative: CooperativeSockets{},
		}},
		primitive.Entry{Name: primitive.Thread, Pair: primitive.Pair{
			Blocking:    threading.NewNativeThreads(tracker),
			Cooperative: threading.NewGreenThreads(hub, tracker),
		}},
		primitive.Entry{Name: primitive.Time, Pair: primitive.Pair{
			Blocking: BlockingClock{}, Cooperative: &CooperativeClock{hub: hub},
		}},
		primitive.Entry{Name: primitive.Subprocess, Pair: primitive.Pair{
			Blocking: BlockingSubprocess{}, Cooperative: CooperativeSubprocess{},
		}},
		primitive.Entry{Name: primitive.SSL, Pair: primitive.Pair{
			Blocking: BlockingTLS{}, Cooperative: CooperativeTLS{},
		}},
		primitive.Entry{
			Name: primitive.Psycopg,
			Pair: primitive.Pair{
				Blocking:    BlockingDatabase{DriverName: postgresDriver},
				Cooperative: CooperativeDatabase{DriverName: postgresDriver},
			},
			Installed: primitive.DriverInstalled(postgresDriver),
		},
		primitive.Entry{
			Name: primitive.MySQLdb,
			Pair: primitive.Pair{
				Blocking:    BlockingDatabase{DriverName: mysqlDriver},
				Cooperative: CooperativeDatabase{DriverName: mysqlDriver},
			},
			Installed: primitive.DriverInstalled(mysqlDriver),
		},
	)
}

// Runtime is a wired hub, thread tracker and environment.
type Runtime struct {
	Env     *greenpatch.Environment
	Hub     *green.Hub
	Tracker *threading.Tracker
}

// Setup wires a fresh runtime. Activating the thread primitive enables the
// tracker, so tasks spawned from then on are seen through the shim.
func Setup(ctx context.Context, envOpts []greenpatch.Option, trackerOpts ...threading.TrackerOption) (*Runtime, error) {
	tracker := threading.NewTracker(trackerOpts...)
	hub := green.NewHub(ctx, tracker.HubOptions()...)

	reg, err := NewRegistry(hub, tracker)
	if err != nil {
		return nil, err
	}

	opts := make([]greenpatch.Option, 0, len(envOpts)+1)
	opts = append(opts, envOpts...)
	opts = append(opts, greenpatch.WithOnActivate(func(n primitive.Name) {
		if n == primitive.Thread {
			tracker.Enable()
		}
	}))

	return &Runtime{
		Env:     greenpatch.New(reg, opts...),
		Hub:     hub,
		Tracker: tracker,
	}, nil
}

var defaultRuntime = sync.OnceValues(func() (*Runtime, error) {
	return Setup(context.Background(), nil)
})

// Default returns the process-wide runtime, creating it on first use.
func Default() (*Runtime, error) {
	return defaultRuntime()
}
