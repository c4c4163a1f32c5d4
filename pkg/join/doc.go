// Package join implements the joining-device core of an IEEE 802.15.4 node.
//
// A Controller finds a parent coordinator, associates with it, keeps the
// node synchronized and recovers from loss of contact. Two network modes
// are supported:
//
//   - Classic: the node scans (active for non-beacon networks, passive for
//     beacon networks), picks the first acceptable coordinator, associates
//     and then polls (sleepy nodes) or tracks beacons. Loss of contact leads
//     to an orphan scan and, if the coordinator answers with a realignment,
//     back to the previous state.
//   - Frequency hopping: the node solicits PAN advertisements and PAN
//     configurations using trickle timers, adopts the advertising node as
//     parent and associates after a randomized delay. Loss of contact
//     restarts the configuration solicit exchange.
//
// # Event Model
//
// The controller never runs protocol logic on the MAC's or the timers'
// goroutines. MAC confirms and indications (the mac.EventSink methods) and
// timer expiries (TimerFired) only enqueue work. Process drains the queue in
// posting order; Run calls Process whenever work arrives. A pending event
// flag is never queued twice.
//
// Application callbacks and the forwarding of each MAC callback to the next
// sink are delivered after the controller's lock is released, so callbacks
// may call back into the controller.
//
// # Usage
//
//	timers := timer.NewScheduler()
//	ctrl, err := join.New(join.DefaultConfig(), macService, timers,
//	    join.WithApplication(app),
//	    join.WithTrace(trace, ""),
//	)
//	timers.OnFire(ctrl.TimerFired)
//	macService.SetSink(ctrl)
//
//	ctrl.Init()
//	ctrl.Join()
//	go ctrl.Run(ctx)
package join
