package join

import (
	"fmt"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// checkBeaconOrder accepts beacons of a non-beacon network only when the
// node is configured for one, and otherwise beacons no slower than the
// configured order.
func (c *Controller) checkBeaconOrder(bo uint8) bool {
	if c.cfg.BeaconOrder == mac.NonBeaconOrder {
		return bo == mac.NonBeaconOrder
	}
	return bo <= c.cfg.BeaconOrder
}

func (c *Controller) handleBeaconNotify(ind mac.BeaconNotifyIndication) {
	pd := ind.PANDesc
	ch := pd.LogicalChannel
	c.tracePrimitiveIn(log.PrimitiveIndication, "BEACON_NOTIFY", nil, pd.CoordAddr.String(), &ch,
		fmt.Sprintf("pan=0x%04x bo=%d", pd.CoordPANID, pd.Superframe.BeaconOrder()), false)

	if ind.Type != mac.BeaconTypeNormal {
		return
	}
	if c.blacklist != nil && c.blacklist.Contains(pd.CoordAddr) {
		c.stats.BlacklistedBeacons++
		c.logger.Debug("ignoring blacklisted coordinator", "addr", pd.CoordAddr)
		return
	}
	if !pd.Superframe.AssociationPermit() || !c.checkBeaconOrder(pd.Superframe.BeaconOrder()) {
		return
	}

	switch {
	case !c.dev.ParentFound && c.dev.PANID == mac.BroadcastPANID:
		c.dev.PANID = pd.CoordPANID
		c.adoptBeacon(pd)
	case pd.CoordPANID == c.dev.PANID && (!c.dev.ParentFound || c.isParent(pd.CoordAddr)):
		c.adoptBeacon(pd)
	}
}

// isParent reports whether addr names the provisional parent, compared in
// the address's own mode.
func (c *Controller) isParent(addr mac.Addr) bool {
	if addr.Mode != c.parentMode {
		return false
	}
	switch addr.Mode {
	case mac.AddrModeShort:
		return addr.Short == c.dev.CoordShortAddr
	case mac.AddrModeExtended:
		return addr.Ext == c.dev.CoordExtAddr
	default:
		return false
	}
}

// adoptBeacon takes the coordinator of pd as provisional parent.
func (c *Controller) adoptBeacon(pd mac.PANDescriptor) {
	c.dev.Channel = pd.LogicalChannel
	switch pd.CoordAddr.Mode {
	case mac.AddrModeShort:
		c.dev.CoordShortAddr = pd.CoordAddr.Short
	case mac.AddrModeExtended:
		c.dev.CoordExtAddr = pd.CoordAddr.Ext
	}
	if bo := pd.Superframe.BeaconOrder(); bo != mac.NonBeaconOrder {
		c.dev.BeaconOrder = bo
		c.dev.SuperframeOrder = pd.Superframe.SuperframeOrder()
	}
	if !c.dev.ParentFound {
		c.parentMode = pd.CoordAddr.Mode
		c.traceState(log.StateEntityParent, "", pd.CoordAddr.String(), fmt.Sprintf("beacon pan=0x%04x", pd.CoordPANID))
	}
	c.dev.ParentFound = true
}

func (c *Controller) handleScanConfirm(cnf mac.ScanConfirm) {
	c.tracePrimitiveIn(log.PrimitiveConfirm, "SCAN", &cnf.Status, "", nil, cnf.Type.String(), false)

	if cnf.Status == mac.StatusSuccess {
		switch cnf.Type {
		case mac.ScanTypeActive:
			c.post(evAssociateReq)
		case mac.ScanTypePassive:
			c.switchScan(ScanSyncReq)
		case mac.ScanTypeOrphan:
			c.post(evCoordRealign)
		}
		return
	}

	if cnf.Type == mac.ScanTypeOrphan && cnf.Status == mac.StatusNoBeacon {
		c.switchScan(ScanOrphan)
		c.updateState(StateOrphan)
		return
	}
	c.rescan()
}

func (c *Controller) handleAssociateConfirm(cnf mac.AssociateConfirm) {
	c.tracePrimitiveIn(log.PrimitiveConfirm, "ASSOCIATE", &cnf.Status, c.parentAddr().String(), nil,
		fmt.Sprintf("short=0x%04x", cnf.ShortAddr), false)

	if cnf.Status != mac.StatusSuccess {
		c.associationFailed(cnf.Status)
		return
	}

	c.dev.DevShortAddr = cnf.ShortAddr
	c.setUint16(mac.AttrShortAddress, cnf.ShortAddr)
	if ext, err := c.mac.GetArray(mac.AttrExtendedAddress); err == nil && len(ext) == mac.ExtAddrLen {
		copy(c.dev.DevExtAddr[:], ext)
	}
	if ext, err := c.mac.GetArray(mac.AttrCoordExtendedAddress); err == nil && len(ext) == mac.ExtAddrLen {
		copy(c.dev.CoordExtAddr[:], ext)
	}

	if c.cfg.FH.Enabled {
		c.stopTrickle(&c.pas)
		c.stopTrickle(&c.pcs)
		c.stop(TimerFHAssoc)
		c.fhAttempts = 0
		c.dev.ParentFound = true
		c.neighbors.SetParent(c.dev.CoordExtAddr)
	}
	if c.cfg.Sleepy() && !c.cfg.FH.Enabled {
		c.stop(TimerScanBackoff)
	}
	c.setBool(mac.AttrRxOnWhenIdle, c.cfg.RxOnWhenIdle)

	next := StateJoined
	switch {
	case c.dev.State == StateInitRestoring:
		next = StateRejoined
	case c.dev.State == StateOrphan && c.dev.PrevState == StateRejoined:
		next = StateRejoined
	}

	c.dev.DataFailures = 0
	dev, parent := c.connectedDescriptors()
	c.notifyJoined(dev, parent)
	c.updateState(next)

	if c.cfg.Sleepy() {
		if c.cfg.FH.Enabled {
			c.arm(TimerPoll, c.randomBelow(c.cfg.FH.StartPollWindow))
		} else {
			c.post(evPoll)
		}
	}
}

func (c *Controller) associationFailed(status mac.Status) {
	c.stats.JoinFails++
	c.logger.Info("association failed", "status", status)

	if !c.cfg.FH.Enabled {
		c.rescan()
		return
	}

	c.fhAttempts++
	if c.fhAttempts < c.cfg.FH.MaxAssociationAttempts {
		c.armFHAssoc(c.cfg.FH.AssocDelay)
		return
	}
	c.logger.Info("abandoning candidate parent", "parent", c.dev.CoordExtAddr, "attempts", c.fhAttempts)
	c.traceState(log.StateEntityParent, c.dev.CoordExtAddr.String(), "", "max association attempts")
	c.dev.ParentFound = false
	c.fhAttempts = 0
	c.startTrickle(&c.pcs)
}

// leave resets the node after it was removed from the network.
func (c *Controller) leave() {
	if c.cfg.Sleepy() {
		c.stop(TimerPoll)
	}
	c.dev.ParentFound = false
	c.neighbors.ClearParent()
	c.updateState(StateInitWaiting)
}

func (c *Controller) handleDisassociateConfirm(cnf mac.DisassociateConfirm) {
	c.tracePrimitiveIn(log.PrimitiveConfirm, "DISASSOCIATE", &cnf.Status, cnf.DeviceAddr.String(), nil, "", false)

	if cnf.Status == mac.StatusSuccess {
		c.leave()
	}

	addr := c.dev.CoordExtAddr
	if cnf.DeviceAddr.Mode == mac.AddrModeExtended {
		addr = cnf.DeviceAddr.Ext
	}
	c.notifyDisassociated(Disassociation{Addr: addr, Requested: true, Status: cnf.Status})
}

func (c *Controller) handleDisassociateIndication(ind mac.DisassociateIndication) {
	c.tracePrimitiveIn(log.PrimitiveIndication, "DISASSOCIATE", nil, ind.DeviceAddr.String(), nil, ind.Reason.String(), false)

	c.leave()
	c.notifyDisassociated(Disassociation{Addr: ind.DeviceAddr, Reason: ind.Reason})
}

func (c *Controller) handleSyncLoss(ind mac.SyncLossIndication) {
	ch := ind.LogicalChannel
	c.tracePrimitiveIn(log.PrimitiveIndication, "SYNC_LOSS", &ind.Reason, "", &ch, "", false)

	c.stats.SyncLossIndications++
	c.logger.Info("sync lost", "reason", ind.Reason, "pan_id", ind.PANID)
	c.enterOrphan("sync loss")
}

// enterOrphan starts recovering the parent after sync loss or too many
// unacknowledged frames.
func (c *Controller) enterOrphan(reason string) {
	if c.cfg.Sleepy() {
		c.stop(TimerPoll)
	}
	c.setBool(mac.AttrRxOnWhenIdle, true)
	c.dev.DataFailures = 0
	c.logger.Info("orphaned", "reason", reason)

	if c.cfg.FH.Enabled {
		c.updateState(StateOrphan)
		c.dev.ParentFound = false
		c.startTrickle(&c.pcs)
		return
	}
	c.switchScan(ScanOrphan)
	c.updateState(StateOrphan)
}

// dataFailed counts one unacknowledged frame and reports whether the node
// was orphaned.
func (c *Controller) dataFailed() bool {
	c.dev.DataFailures++
	c.stats.DataFailures++
	if c.dev.DataFailures >= c.cfg.MaxDataFailures {
		c.enterOrphan("data failures")
		return true
	}
	return false
}

func (c *Controller) handlePollConfirm(cnf mac.PollConfirm) {
	c.tracePrimitiveIn(log.PrimitiveConfirm, "POLL", &cnf.Status, c.parentAddr().String(), nil, "", false)

	switch cnf.Status {
	case mac.StatusSuccess, mac.StatusNoData:
		if !c.cfg.FH.Enabled && c.dev.State == StateInitRestoring {
			c.setBool(mac.AttrRxOnWhenIdle, c.cfg.RxOnWhenIdle)
			dev, parent := c.connectedDescriptors()
			c.notifyJoined(dev, parent)
			c.updateState(StateRejoined)
			if c.cfg.Sleepy() {
				c.post(evPoll)
			}
		}
		c.dev.DataFailures = 0

	case mac.StatusNoAck:
		connected := c.dev.State.Connected()
		if connected && !c.cfg.FH.Enabled {
			c.arm(TimerPoll, PollRetryInterval)
		}
		if c.dataFailed() {
			return
		}
		if c.dev.State == StateInitRestoring && c.cfg.Sleepy() && !c.cfg.FH.Enabled {
			c.post(evPoll)
		}

	case mac.StatusChannelAccessFailure:
		if !c.cfg.FH.Enabled {
			c.arm(TimerPoll, PollRetryInterval)
		}
	}
}

func (c *Controller) handleDataConfirm(cnf mac.DataConfirm) {
	c.tracePrimitiveIn(log.PrimitiveConfirm, "DATA", &cnf.Status, "", nil, fmt.Sprintf("handle=%d", cnf.Handle), false)

	switch cnf.Status {
	case mac.StatusSuccess:
		c.dev.DataFailures = 0
	case mac.StatusNoAck:
		c.dataFailed()
	}
}

func (c *Controller) processState() {
	switch c.dev.ScanState {
	case ScanActive:
		c.sendScan(mac.ScanTypeActive)
	case ScanPassive:
		c.sendScan(mac.ScanTypePassive)
	case ScanOrphan:
		c.sendScan(mac.ScanTypeOrphan)
	case ScanSyncReq:
		c.setUint8(mac.AttrBeaconOrder, c.dev.BeaconOrder)
		c.setUint8(mac.AttrSuperframeOrder, c.dev.SuperframeOrder)
		c.setUint16(mac.AttrCoordShortAddress, c.dev.CoordShortAddr)
		c.setUint16(mac.AttrPANID, c.dev.PANID)
		c.sendSync()
		if c.dev.ParentFound {
			c.post(evAssociateReq)
		}
	}
}

func (c *Controller) processPoll() {
	if c.cfg.BeaconOrder != mac.NonBeaconOrder {
		return
	}
	if c.dev.State.Connected() {
		c.arm(TimerPoll, c.dev.PollInterval)
	}
	if c.cfg.FH.Enabled && c.cfg.Sleepy() {
		c.setUint16(mac.AttrFHUnicastFixedChannel, c.nextHopChannel())
	}
	c.sendPoll()
}

func (c *Controller) processCoordRealign() {
	pan, err := c.mac.GetUint16(mac.AttrPANID)
	if err != nil || pan != c.dev.PANID {
		c.logger.Info("realigned to a different PAN", "pan_id", pan, "expected", c.dev.PANID)
		c.switchScan(ScanOrphan)
		c.updateState(StateOrphan)
		return
	}

	switch c.dev.PrevState {
	case StateJoined:
		c.updateState(StateJoined)
	case StateRejoined:
		c.updateState(StateRejoined)
	case StateInitRestoring:
		dev, parent := c.connectedDescriptors()
		c.notifyJoined(dev, parent)
		c.updateState(StateRejoined)
	}
	if c.cfg.Sleepy() {
		c.arm(TimerPoll, c.dev.PollInterval)
	}
	c.setBool(mac.AttrRxOnWhenIdle, c.cfg.RxOnWhenIdle)
}

func (c *Controller) processScanBackoff() {
	if c.dev.ScanState == ScanBackoff {
		c.continueScan = true
		c.switchScan(c.dev.PrevScanState)
	} else {
		c.dev.PrevScanState = c.dev.ScanState
		c.traceState(log.StateEntityScan, c.dev.ScanState.String(), ScanBackoff.String(), "backoff")
		c.dev.ScanState = ScanBackoff
		c.continueScan = false
	}
	c.arm(TimerScanBackoff, c.cfg.ScanBackoffInterval)
}
