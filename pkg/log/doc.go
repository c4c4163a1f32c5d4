// Package log provides the protocol trace of the joining-device core.
//
// The trace is a machine-readable stream of events describing what the join
// controller asked of the MAC, what the MAC reported back, which timers were
// armed and how the join and scan states moved. It is separate from
// operational logging (slog): operational logs are for humans, the trace is
// for replaying and analysing a join after the fact.
//
// # Basic Usage
//
//	// During development: trace to the console via slog
//	trace := log.NewSlogAdapter(slog.Default())
//
//	// In the field: append to a binary trace file
//	trace, _ := log.NewFileLogger("/var/lib/pan/node.ptrace")
//
//	// Both
//	trace := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Primitive: a MAC request, confirm or indication (PrimitiveEvent)
//   - Timer: a timer armed, stopped or fired (TimerEvent)
//   - State: a join or scan state transition (StateChangeEvent)
//   - Notification: a callback delivered to the application (NotificationEvent)
//   - Error: a rejected MAC request or PIB write (ErrorEventData)
//
// # File Format
//
// Trace files are a concatenation of CBOR-encoded events using integer map
// keys. The pan-log tool views, filters and summarises them.
package log
