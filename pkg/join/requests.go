package join

import (
	"errors"
	"fmt"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// request records the outcome of handing a request to the MAC. A rejected
// request leaves the state machine where it is.
func (c *Controller) request(name string, err error) bool {
	if err == nil {
		return true
	}
	c.stats.RejectedRequests++
	c.logger.Warn("mac rejected request", "primitive", name, "error", err)

	var code *int
	var me *mac.Error
	if errors.As(err, &me) {
		v := int(me.Status)
		code = &v
	}
	c.traceError(log.LayerMAC, err.Error(), code, name)
	return false
}

// pibError logs a failed PIB write. PIB writes are fire-and-forget.
func (c *Controller) pibError(attr mac.Attribute, err error) {
	if err != nil {
		c.logger.Warn("pib set failed", "attr", attr, "error", err)
		c.traceError(log.LayerMAC, err.Error(), nil, "SET "+attr.String())
	}
}

func (c *Controller) setBool(attr mac.Attribute, v bool) {
	c.pibError(attr, c.mac.SetBool(attr, v))
}

func (c *Controller) setUint8(attr mac.Attribute, v uint8) {
	c.pibError(attr, c.mac.SetUint8(attr, v))
}

func (c *Controller) setUint16(attr mac.Attribute, v uint16) {
	c.pibError(attr, c.mac.SetUint16(attr, v))
}

func (c *Controller) setArray(attr mac.Attribute, v []byte) {
	c.pibError(attr, c.mac.SetArray(attr, v))
}

func (c *Controller) sendScan(t mac.ScanType) {
	req := mac.ScanRequest{
		Type:          t,
		Channels:      c.cfg.ChannelMask,
		Duration:      c.cfg.ScanDuration,
		ChannelPage:   c.cfg.ChannelPage,
		PhyID:         c.cfg.PhyID,
		MaxResults:    0,
		LinkQuality:   c.cfg.LinkQuality,
		PercentFilter: c.cfg.PercentFilter,
	}
	c.traceRequest("SCAN", "", nil, t.String())
	c.request("SCAN", c.mac.Scan(req))
}

func (c *Controller) sendAssociationRequest() {
	req := mac.AssociateRequest{
		CoordPANID:  c.dev.PANID,
		ChannelPage: c.cfg.ChannelPage,
		PhyID:       c.cfg.PhyID,
		Capability: mac.Capability{
			AllocAddr:    true,
			RxOnWhenIdle: c.cfg.RxOnWhenIdle,
		},
	}
	if c.cfg.FH.Enabled {
		req.CoordAddr = mac.ExtendedAddr(c.dev.CoordExtAddr)
		req.LogicalChannel = 0
	} else {
		req.CoordAddr = mac.ShortAddr(c.dev.CoordShortAddr)
		req.LogicalChannel = c.dev.Channel
	}

	ch := req.LogicalChannel
	c.traceRequest("ASSOCIATE", req.CoordAddr.String(), &ch, fmt.Sprintf("pan=0x%04x", req.CoordPANID))
	c.stats.JoinAttempts++
	c.request("ASSOCIATE", c.mac.Associate(req))
}

func (c *Controller) sendAsync(frame mac.AsyncFrame) bool {
	req := mac.AsyncRequest{
		Operation: mac.AsyncStart,
		Frame:     frame,
		Channels:  c.cfg.FH.AsyncChannelMask,
	}
	c.traceRequest("WS_ASYNC", "", nil, frame.String())
	return c.request("WS_ASYNC", c.mac.WSAsync(req))
}

func (c *Controller) sendPoll() {
	req := mac.PollRequest{
		CoordAddr:  c.parentAddr(),
		CoordPANID: c.dev.PANID,
	}
	c.SecurityFill(&req.Security)
	c.traceRequest("POLL", req.CoordAddr.String(), nil, "")
	c.stats.PollRequests++
	c.request("POLL", c.mac.Poll(req))
}

func (c *Controller) sendSync() {
	req := mac.SyncRequest{
		LogicalChannel: c.dev.Channel,
		ChannelPage:    c.cfg.ChannelPage,
		PhyID:          c.cfg.PhyID,
		TrackBeacon:    true,
	}
	ch := req.LogicalChannel
	c.traceRequest("SYNC", "", &ch, "")
	c.request("SYNC", c.mac.Sync(req))
}
