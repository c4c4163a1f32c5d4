// Package mac defines the contract between the joining-device core and the
// IEEE 802.15.4 MAC sublayer underneath it.
//
// The MAC itself (radio, CSMA, frame security, FH scheduling) is an external
// collaborator. This package only describes what the core needs from it:
//
//   - Request primitives (Scan, Associate, Disassociate, Poll, Sync, WSAsync,
//     Data) that are fire-and-forget; their results arrive later on an
//     EventSink.
//   - PIB access for the MAC, frequency-hopping and security attribute sets.
//   - Security key and device table management.
//   - A random byte source used for jitter.
//
// It also carries the small value types shared by every layer above the MAC:
// extended and short addresses, status codes, the ChannelMask bitset, the
// superframe specification accessors and a payload information element
// parser that writes into caller-supplied fixed-capacity slices.
//
// # Event Sinks
//
// MAC confirms and indications are delivered to an EventSink. Sinks can be
// layered: an inner sink handles a callback first and then forwards it
// unchanged to the sink it wraps.
//
//	ctrl, _ := join.New(cfg, svc, timers, join.WithNext(appSink))
//	svc.SetEventSink(ctrl)
package mac
