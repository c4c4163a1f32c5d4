package join

import (
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

// emit stamps and writes one trace event. Callers hold mu.
func (c *Controller) emit(ev log.Event) {
	if c.trace == nil {
		return
	}
	ev.Timestamp = c.now()
	ev.SessionID = c.session
	ev.Mode = log.ModeClassic
	if c.cfg.FH.Enabled {
		ev.Mode = log.ModeHopping
	}
	ev.PANID = c.dev.PANID
	if !c.dev.DevExtAddr.IsZero() {
		ev.DeviceAddr = c.dev.DevExtAddr.String()
	}
	c.trace.Log(ev)
}

func (c *Controller) traceRequest(name, addr string, channel *uint8, detail string) {
	c.emit(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerMAC,
		Category:  log.CategoryPrimitive,
		Primitive: &log.PrimitiveEvent{
			Kind:    log.PrimitiveRequest,
			Name:    name,
			Addr:    addr,
			Channel: channel,
			Detail:  detail,
		},
	})
}

func (c *Controller) tracePrimitiveIn(kind log.PrimitiveKind, name string, status *mac.Status, addr string, channel *uint8, detail string, filtered bool) {
	p := &log.PrimitiveEvent{
		Kind:     kind,
		Name:     name,
		Addr:     addr,
		Channel:  channel,
		Detail:   detail,
		Filtered: filtered,
	}
	if status != nil {
		s := uint8(*status)
		p.Status = &s
	}
	c.emit(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerMAC,
		Category:  log.CategoryPrimitive,
		Primitive: p,
	})
}

func (c *Controller) traceTimer(id timer.ID, action log.TimerAction, d time.Duration) {
	c.emit(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerJoin,
		Category:  log.CategoryTimer,
		Timer: &log.TimerEvent{
			ID:       uint8(id),
			Name:     TimerName(id),
			Action:   action,
			Duration: d,
		},
	})
}

func (c *Controller) traceState(entity log.StateEntity, from, to, reason string) {
	c.emit(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerJoin,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

func (c *Controller) traceNotification(typ log.NotificationType, short *uint16, parent, detail string) {
	c.emit(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerApplication,
		Category:  log.CategoryNotification,
		Notification: &log.NotificationEvent{
			Type:       typ,
			ShortAddr:  short,
			ParentAddr: parent,
			Detail:     detail,
		},
	})
}

func (c *Controller) traceError(layer log.Layer, msg string, code *int, context string) {
	c.emit(log.Event{
		Direction: log.DirectionOut,
		Layer:     layer,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: msg,
			Code:    code,
			Context: context,
		},
	})
}
