// Package green is a minimal lightweight-task hub: the scheduler-side
// collaborator the thread shim and the cooperative providers are built on.
//
// Tasks are goroutines. [Hub.Spawn] creates a joinable task whose result
// is collected with [Task.Wait]; [Hub.SpawnN] creates a fire-and-forget
// task the hub does not wait for at shutdown. Blocking points ([Hub.Sleep],
// [Task.Wait], [Hub.Yield]) park only the calling goroutine.
//
// Lifecycle hooks registered with [WithOnSpawn] and [WithOnExit] observe
// every task from creation to its terminal state. The exit hook runs before
// the task is marked finished, so a waiter that returns from [Task.Wait]
// already sees the hook's effects.
package green
