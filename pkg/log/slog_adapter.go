package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Mode != 0 {
		attrs = append(attrs, slog.String("mode", event.Mode.String()))
	}
	if event.PANID != 0 {
		attrs = append(attrs, slog.Int("pan_id", int(event.PANID)))
	}

	switch {
	case event.Primitive != nil:
		p := event.Primitive
		attrs = append(attrs,
			slog.String("primitive", p.Name),
			slog.String("kind", p.Kind.String()),
		)
		if p.Status != nil {
			attrs = append(attrs, slog.Int("status", int(*p.Status)))
		}
		if p.Addr != "" {
			attrs = append(attrs, slog.String("addr", p.Addr))
		}
		if p.Channel != nil {
			attrs = append(attrs, slog.Int("channel", int(*p.Channel)))
		}
		if p.Detail != "" {
			attrs = append(attrs, slog.String("detail", p.Detail))
		}
		if p.Filtered {
			attrs = append(attrs, slog.Bool("filtered", true))
		}
	case event.Timer != nil:
		attrs = append(attrs,
			slog.String("timer", event.Timer.Name),
			slog.String("action", event.Timer.Action.String()),
		)
		if event.Timer.Action == TimerArmed {
			attrs = append(attrs, slog.Duration("delay", event.Timer.Duration))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Notification != nil:
		attrs = append(attrs, slog.String("notification", event.Notification.Type.String()))
		if event.Notification.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Notification.Detail))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trace", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
