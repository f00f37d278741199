// Package greenpatch substitutes cooperative implementations for blocking
// primitives, selectively and within one process-scoped [Environment].
//
// Consumers never call a blocking primitive directly. They resolve a
// capability (see package primitive) through the environment, which hands
// out either the blocking or the cooperative implementation depending on
// what has been activated:
//
//	rt, _ := providers.Setup(ctx, nil)
//	clock := greenpatch.MustLookup[primitive.Clock](rt.Env, primitive.Time)
//
// # Activation
//
// [Environment.Activate] takes a request of [Setting] values keyed by
// primitive name or the wildcard "all". Resolution per primitive:
//
//   - An explicit setting wins; when a key repeats, the last one counts.
//   - Otherwise a wildcard setting decides.
//   - Otherwise, if anything was explicitly enabled, the primitive stays off.
//   - Otherwise the default policy applies: os, select, socket and time.
//
// Thread patching is never part of the default policy. Optional database
// drivers that are not linked into the binary are skipped silently. An
// unknown key fails the whole request with [*UnrecognizedOptionError]
// before anything changes. Activation is monotonic: nothing is ever
// deactivated.
//
// # Originals
//
// [Environment.Original] returns the implementation a primitive was bound
// to the first time it was asked for, so code such as an offload pool can
// keep using native threads after threads are patched. Ask early, or build
// the environment with [WithEagerOriginals].
//
// # Scoped loading
//
// Units registered in a [Catalog] can be loaded through the ambient
// bindings ([Environment.Import], cached) or in an isolated namespace with
// chosen overrides ([Environment.LoadIsolated], [Environment.ImportPatched],
// [Environment.Inject]). Isolated loads never touch activation state and
// never enter the module table.
package greenpatch
