// Package notify publishes join notifications to message brokers.
//
// A Bridge implements join.Application and turns every Joined,
// Disassociated and StateChanged callback into a JSON Event. Events are
// handed to one or more Publishers; MQTT and NATS publishers are
// provided. Each publisher maps an event to its own topic layout:
//
//	MQTT: <prefix>/<node>/<event>
//	NATS: <prefix>.<node>.<event>
//
// Publishing never blocks the join controller: events are queued and
// sent from a background goroutine started by Bridge.Run.
package notify
