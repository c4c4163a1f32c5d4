package join

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// sleepyChannelLimit bounds the hopping channels a sleepy node cycles
// through as its fixed unicast channel.
const sleepyChannelLimit = 129

// initFH programs the hopping PIB, starts hopping and begins soliciting PAN
// advertisements. Callers hold mu.
func (c *Controller) initFH() {
	fh := c.cfg.FH
	c.fhMask = fh.ChannelMask

	c.setUint8(mac.AttrFHUnicastDwellInterval, fh.DwellTime)
	c.setUint8(mac.AttrFHBroadcastDwellInterval, fh.DwellTime)

	var name [mac.NetNameMaxLen]byte
	copy(name[:], fh.NetName)
	c.setArray(mac.AttrFHNetName, name[:])

	if c.cfg.Sleepy() {
		c.setUint8(mac.AttrFHUnicastChannelFunction, mac.ChannelFunctionFixed)
		c.setUint8(mac.AttrFHBroadcastChannelFunction, mac.ChannelFunctionFixed)
		c.fhMask.Truncate(sleepyChannelLimit)
		c.sleepyChIdx = 0
		c.setUint16(mac.AttrFHUnicastFixedChannel, c.nextHopChannel())
	} else {
		excluded := c.fhMask.Complement().Bytes()
		c.setUint8(mac.AttrFHUnicastChannelFunction, mac.ChannelFunctionDH1CF)
		c.setUint8(mac.AttrFHBroadcastChannelFunction, mac.ChannelFunctionDH1CF)
		c.setArray(mac.AttrFHUnicastExcludedChannels, excluded)
		c.setArray(mac.AttrFHBroadcastExcludedChannels, excluded)
	}

	c.traceRequest("START_FH", "", nil, c.fhMask.String())
	c.request("START_FH", c.mac.StartFH())

	c.startTrickle(&c.pas)
	c.arm(TimerPurge, c.neighbors.Config().PurgePeriod)
}

// nextHopChannel returns the next channel of the hopping mask in round
// robin order, used by sleepy nodes as their fixed unicast channel.
func (c *Controller) nextHopChannel() uint16 {
	ch, ok := c.fhMask.Next(c.sleepyChIdx)
	if !ok {
		return 0
	}
	c.sleepyChIdx = ch + 1
	return uint16(ch)
}

// rand16 returns a 16-bit random number from the MAC generator.
func (c *Controller) rand16() uint16 {
	return binary.BigEndian.Uint16([]byte{c.mac.RandomByte(), c.mac.RandomByte()})
}

// randomBelow returns a random duration in [0, window), with millisecond
// resolution.
func (c *Controller) randomBelow(window time.Duration) time.Duration {
	ms := uint32(window / time.Millisecond)
	if ms == 0 {
		return 0
	}
	return time.Duration(uint32(c.rand16())%ms) * time.Millisecond
}

// trickleDelay returns a delay in [t/2, t).
func (c *Controller) trickleDelay(t time.Duration) time.Duration {
	half := t / 2
	if half < time.Millisecond {
		return t
	}
	return half + c.randomBelow(half)
}

func (c *Controller) startTrickle(t *trickle) {
	t.running = true
	t.heard = 0
	c.arm(t.id, c.trickleDelay(t.window))
}

func (c *Controller) stopTrickle(t *trickle) {
	if !t.running {
		return
	}
	t.running = false
	c.stop(t.id)
}

// trickleFired sends the solicit unless enough were heard from neighbors in
// this interval, then starts the next interval.
func (c *Controller) trickleFired(t *trickle) {
	if !t.running {
		return
	}
	if t.heard == 0 && c.sendAsync(t.frame) {
		if t.frame == mac.AsyncFramePANAdvertSolicit {
			c.stats.FHPASolicitSent++
		} else {
			c.stats.FHPANConfigSolicitsSent++
		}
	}
	t.heard = 0
	c.arm(t.id, c.trickleDelay(t.window))
}

// armFHAssoc schedules the next association attempt after base plus a
// random spread.
func (c *Controller) armFHAssoc(base time.Duration) {
	c.arm(TimerFHAssoc, base+c.randomBelow(c.cfg.FH.AssocRandomWindow))
}

func (c *Controller) processPurge() {
	if n := c.neighbors.Purge(c.now()); n > 0 {
		c.logger.Debug("purged neighbors", "count", n)
	}
	c.arm(TimerPurge, c.neighbors.Config().PurgePeriod)
}

// handleAsyncIndication processes a PA, PAS, PC or PCS frame. It returns
// false when the frame was filtered and must not be forwarded.
func (c *Controller) handleAsyncIndication(ind mac.AsyncIndication) bool {
	ies, err := mac.ParseWisun(ind.PayloadIE)
	if err != nil {
		c.logger.Debug("malformed payload IEs", "src", ind.SrcAddr, "error", err)
		ies = mac.WisunIEs{}
	}

	if ind.Frame != mac.FHFrameConfig && !ies.NetNameEquals(c.cfg.FH.NetName) {
		c.stats.FilteredAsyncIndications++
		c.tracePrimitiveIn(log.PrimitiveIndication, "WS_ASYNC", nil, ind.SrcAddr.String(), nil, ind.Frame.String(), true)
		return false
	}
	c.tracePrimitiveIn(log.PrimitiveIndication, "WS_ASYNC", nil, ind.SrcAddr.String(), nil, ind.Frame.String(), false)

	if ind.SrcAddr.Mode == mac.AddrModeExtended {
		var sched *mac.UnicastSchedule
		if ies.HasSchedule {
			sched = &ies.Schedule
		}
		c.neighbors.Refresh(ind.SrcAddr.Ext, sched, c.now())
	}

	switch ind.Frame {
	case mac.FHFramePANAdvertSolicit:
		c.pas.heard++
	case mac.FHFrameConfigSolicit:
		c.pcs.heard++
	case mac.FHFramePANAdvert:
		c.handlePANAdvert(ind, &ies)
	case mac.FHFrameConfig:
		c.handlePANConfig(ind, &ies)
	}
	return true
}

func (c *Controller) handlePANAdvert(ind mac.AsyncIndication, ies *mac.WisunIEs) {
	c.stats.FHPAReceived++
	src := ind.SrcAddr.Ext

	if ies.HasPAN {
		p := ies.PAN
		if p.RoutingCost == 0 {
			c.dev.CoordExtAddr = src
		}
		c.setUint16(mac.AttrFHPANSize, p.Size)
		c.setUint16(mac.AttrFHRoutingCost, p.RoutingCost)
		c.setBool(mac.AttrFHUseParentBSIE, p.UseParentBSIE)
		c.setUint8(mac.AttrFHRoutingMethod, p.RoutingMethod)
		c.setBool(mac.AttrFHEAPOLReady, p.EAPOLReady)
		c.setUint8(mac.AttrFHFANTPSVersion, p.FANTPSVersion)
	}

	c.setArray(mac.AttrFHTrackParentEUI, src[:])
	c.setUint16(mac.AttrPANID, ind.SrcPANID)
	if st := c.AddSecurityDevice(ind.SrcPANID, ind.SrcShortAddr, src, ind.FrameCounter); st != mac.StatusSuccess {
		c.logger.Warn("add security device failed", "addr", src, "status", st)
	}

	c.dev.PANID = ind.SrcPANID
	c.dev.CoordExtAddr = src
	c.neighbors.SetParent(src)

	if !c.dev.ParentFound {
		c.traceState(log.StateEntityParent, "", src.String(), fmt.Sprintf("PA pan=0x%04x", ind.SrcPANID))
		c.stopTrickle(&c.pas)
		if !c.pcs.running {
			c.startTrickle(&c.pcs)
		}
	}
}

func (c *Controller) handlePANConfig(ind mac.AsyncIndication, ies *mac.WisunIEs) {
	if ies.HasPANVersion {
		c.setUint16(mac.AttrFHPANVersion, ies.PANVersion)
	}
	if ies.HasGTKHashes {
		for i, h := range ies.GTKHashes {
			c.setArray(mac.GTKHashAttribute(i), h[:])
		}
	}

	c.stats.FHPANConfigReceived++
	src := ind.SrcAddr.Ext
	c.setArray(mac.AttrFHTrackParentEUI, src[:])
	c.neighbors.SetParent(src)
	c.stopTrickle(&c.pcs)

	if !c.dev.ParentFound {
		c.dev.ParentFound = true
		c.fhAttempts = 0
		c.armFHAssoc(2 * c.cfg.FH.AssocDelay)
	}
}
