// Package timer provides the one-shot timer service used by the join core.
//
// Timers are identified by a small integer ID chosen by the caller. Arming a
// timer that is already running replaces it; arming with a zero or negative
// duration stops it. A timer fires at most once per arm and firing only
// invokes the callback registered with OnFire. The callback is expected to
// post an event and return immediately; protocol logic never runs on the
// timer goroutine.
//
// Two implementations are provided:
//
//   - Scheduler uses time.AfterFunc and the wall clock.
//   - Manual keeps a virtual clock that only moves when Advance is called.
//     It is used by tests and by the simulator to make timing deterministic.
package timer
