package join

import (
	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// The controller is the MAC's event sink. Every callback is queued and
// handled by Process; after handling it is forwarded to the next sink
// unless the controller filtered it.
var _ mac.EventSink = (*Controller)(nil)

func (c *Controller) BeaconNotify(ind mac.BeaconNotifyIndication) {
	c.enqueue(func(c *Controller) {
		c.handleBeaconNotify(ind)
		c.forward(func(s mac.EventSink) { s.BeaconNotify(ind) })
	})
}

func (c *Controller) ScanConfirm(cnf mac.ScanConfirm) {
	c.enqueue(func(c *Controller) {
		c.handleScanConfirm(cnf)
		c.forward(func(s mac.EventSink) { s.ScanConfirm(cnf) })
	})
}

func (c *Controller) AssociateConfirm(cnf mac.AssociateConfirm) {
	c.enqueue(func(c *Controller) {
		c.handleAssociateConfirm(cnf)
		c.forward(func(s mac.EventSink) { s.AssociateConfirm(cnf) })
	})
}

func (c *Controller) DisassociateConfirm(cnf mac.DisassociateConfirm) {
	c.enqueue(func(c *Controller) {
		c.handleDisassociateConfirm(cnf)
		c.forward(func(s mac.EventSink) { s.DisassociateConfirm(cnf) })
	})
}

func (c *Controller) DisassociateIndication(ind mac.DisassociateIndication) {
	c.enqueue(func(c *Controller) {
		c.handleDisassociateIndication(ind)
		c.forward(func(s mac.EventSink) { s.DisassociateIndication(ind) })
	})
}

func (c *Controller) SyncLossIndication(ind mac.SyncLossIndication) {
	c.enqueue(func(c *Controller) {
		c.handleSyncLoss(ind)
		c.forward(func(s mac.EventSink) { s.SyncLossIndication(ind) })
	})
}

func (c *Controller) PollConfirm(cnf mac.PollConfirm) {
	c.enqueue(func(c *Controller) {
		c.handlePollConfirm(cnf)
		c.forward(func(s mac.EventSink) { s.PollConfirm(cnf) })
	})
}

func (c *Controller) DataConfirm(cnf mac.DataConfirm) {
	c.enqueue(func(c *Controller) {
		c.handleDataConfirm(cnf)
		c.forward(func(s mac.EventSink) { s.DataConfirm(cnf) })
	})
}

func (c *Controller) WSAsyncIndication(ind mac.AsyncIndication) {
	c.enqueue(func(c *Controller) {
		if c.handleAsyncIndication(ind) {
			c.forward(func(s mac.EventSink) { s.WSAsyncIndication(ind) })
		}
	})
}

func (c *Controller) WSAsyncConfirm(cnf mac.AsyncConfirm) {
	c.enqueue(func(c *Controller) {
		c.tracePrimitiveIn(log.PrimitiveConfirm, "WS_ASYNC", &cnf.Status, "", nil, "", false)
		c.forward(func(s mac.EventSink) { s.WSAsyncConfirm(cnf) })
	})
}
