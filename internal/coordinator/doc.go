// Package coordinator runs the propagate-and-filter pipeline across a fixed
// number of execution units and merges their results.
//
// A run is a two-barrier protocol:
//
//  1. Init/broadcast: unit 0 loads the catalog and hands every unit (itself
//     included) its own copy over a channel. Units block until it arrives.
//  2. Dispatch: each unit computes the same partitioning, takes its own slice
//     and walks the whole time grid on its own goroutine, accumulating rows.
//  3. Gather: units send their partial result set to unit 0, which waits for
//     all of them (optionally bounded by a timeout) and concatenates them in
//     rank order.
//
// Any unit failure is fatal to the run: the shared context is cancelled,
// the other units stop at their next instant and Run returns the first error
// as a *UnitError naming the rank and stage. Per-object propagation failures
// are not unit failures; the evaluator counts and skips them.
package coordinator
