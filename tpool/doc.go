// Package tpool runs blocking calls on native OS threads so the calling
// task is parked instead of stalling the scheduler.
//
// Workers are started on demand through a [primitive.Threads]
// implementation, normally the original (unpatched) one taken from the
// environment's vault, and are reused while idle. [Pool.Killall] retires
// the idle workers and invalidates the pool.
package tpool
