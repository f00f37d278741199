// Package primitive defines the closed set of substitutable concurrency
// primitives, the capability interfaces each implementation satisfies, and
// the static [Registry] pairing every primitive with its blocking and
// cooperative implementation.
//
// A [Registry] is built once at startup and is read-only afterwards, so
// [Registry.Lookup] is safe for concurrent use without locking.
package primitive
