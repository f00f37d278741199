// Package threading makes lightweight tasks look like native threads.
//
// A [GreenThread] wraps a [green.Task] and implements [primitive.ThreadHandle]:
// a mutable name (default "GreenThread-N"), a stable identity, liveness,
// the daemon flag and a timed join. A [Tracker] keeps every thread-like
// handle, green or native, from creation until it finishes, so
// [Tracker.Enumerate] mirrors native thread introspection. Threads started
// through [GreenThreads] are tracked even while the shim is disabled.
//
// [GreenThreads] and [NativeThreads] are the cooperative and blocking
// implementations of the "thread" primitive.
package threading
