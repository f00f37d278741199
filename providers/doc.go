// Package providers holds the reference blocking and cooperative
// implementations of every primitive and assembles them into the default
// registry.
//
// Blocking implementations call the standard library directly and ignore
// cancellation. Cooperative implementations park only the calling
// goroutine and honor the caller's context.
//
// [Setup] wires a hub, a thread tracker and an environment together;
// [Default] does it once per process.
package providers
