package join

import (
	"context"
	"sync"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

// Timer identifiers used with TimerService.
const (
	TimerPAS timer.ID = iota + 1
	TimerPCS
	TimerPoll
	TimerScanBackoff
	TimerFHAssoc
	TimerPurge
)

var timerNames = map[timer.ID]string{
	TimerPAS:         "PAS",
	TimerPCS:         "PCS",
	TimerPoll:        "POLL",
	TimerScanBackoff: "SCAN_BACKOFF",
	TimerFHAssoc:     "FH_ASSOC",
	TimerPurge:       "PURGE",
}

// TimerName returns the name of a controller timer.
func TimerName(id timer.ID) string {
	if name, ok := timerNames[id]; ok {
		return name
	}
	return id.String()
}

// event is a pending internal event flag.
type event uint16

const (
	evPAS event = 1 << iota
	evPCS
	evStateChange
	evPoll
	evAssociateReq
	evCoordRealign
	evScanBackoff
	evPurge
)

var timerEvents = map[timer.ID]event{
	TimerPAS:         evPAS,
	TimerPCS:         evPCS,
	TimerPoll:        evPoll,
	TimerScanBackoff: evScanBackoff,
	TimerFHAssoc:     evAssociateReq,
	TimerPurge:       evPurge,
}

// queueItem is either an event flag or a MAC callback to handle.
type queueItem struct {
	ev      event
	timer   timer.ID
	handler func(c *Controller)
}

// eventQueue holds work posted from MAC callbacks and timer expiries. An
// event flag is queued at most once until it is handled.
type eventQueue struct {
	mu      sync.Mutex
	items   []queueItem
	pending event
}

func (q *eventQueue) pushEvent(ev event, id timer.ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending&ev != 0 {
		return false
	}
	q.pending |= ev
	q.items = append(q.items, queueItem{ev: ev, timer: id})
	return true
}

func (q *eventQueue) pushHandler(h func(c *Controller)) {
	q.mu.Lock()
	q.items = append(q.items, queueItem{handler: h})
	q.mu.Unlock()
}

func (q *eventQueue) pop() (queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return queueItem{}, false
	}
	it := q.items[0]
	q.items[0] = queueItem{}
	q.items = q.items[1:]
	q.pending &^= it.ev
	return it, true
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending reports whether work is queued for Process.
func (c *Controller) Pending() bool {
	return c.queue.len() > 0
}

// TimerFired reports the expiry of a controller timer. It only queues the
// event and may be called from any goroutine.
func (c *Controller) TimerFired(id timer.ID) {
	ev, ok := timerEvents[id]
	if !ok {
		c.logger.Warn("unknown timer fired", "timer", id)
		return
	}
	if c.queue.pushEvent(ev, id) {
		c.signal()
	}
}

// post queues an internal event. Callers hold mu.
func (c *Controller) post(ev event) {
	if c.queue.pushEvent(ev, 0) {
		c.signal()
	}
}

// enqueue queues a MAC callback handler.
func (c *Controller) enqueue(h func(c *Controller)) {
	c.queue.pushHandler(h)
	c.signal()
}

func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Process handles all queued work, including work queued while handling,
// and returns the number of items handled.
func (c *Controller) Process() int {
	n := 0
	c.locked(func() {
		for {
			it, ok := c.queue.pop()
			if !ok {
				return
			}
			n++
			if it.handler != nil {
				it.handler(c)
				continue
			}
			if it.timer != 0 {
				c.traceTimer(it.timer, log.TimerFired, 0)
			}
			c.dispatch(it.ev)
		}
	})
	return n
}

// Run processes queued work until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		c.Process()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		}
	}
}

func (c *Controller) dispatch(ev event) {
	switch ev {
	case evPAS:
		c.trickleFired(&c.pas)
	case evPCS:
		c.trickleFired(&c.pcs)
	case evStateChange:
		c.processState()
	case evPoll:
		c.processPoll()
	case evAssociateReq:
		c.sendAssociationRequest()
	case evCoordRealign:
		c.processCoordRealign()
	case evScanBackoff:
		c.processScanBackoff()
	case evPurge:
		c.processPurge()
	}
}

// arm starts or restarts a timer and traces it. Callers hold mu.
func (c *Controller) arm(id timer.ID, d time.Duration) {
	c.timers.Arm(id, d)
	c.traceTimer(id, log.TimerArmed, d)
}

// stop cancels a timer. Callers hold mu.
func (c *Controller) stop(id timer.ID) {
	c.timers.Arm(id, 0)
	c.traceTimer(id, log.TimerStopped, 0)
}
