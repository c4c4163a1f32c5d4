// Package neighbor implements the bounded neighbor hop table of a
// frequency-hopping node.
//
// Each entry tracks the unicast schedule a neighbor advertised (clock drift,
// timing accuracy, dwell interval, channel function) and when it was last
// heard. The table holds at most Capacity valid entries. When it is full,
// creating an entry evicts the entry that has been silent the longest,
// skipping the current parent. A periodic Purge drops entries older than the
// purge interval, again never touching the parent.
//
// Entries whose channel function is DH1CF expire for lookups once they are
// older than the valid time, because their hop sequence can no longer be
// predicted. Fixed-channel neighbors never expire this way.
//
// The table is safe for concurrent use. Time is always passed in by the
// caller so the table can be driven by a virtual clock.
package neighbor
