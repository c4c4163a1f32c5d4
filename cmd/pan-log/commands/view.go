package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
)

const timestampFormat = "2006-01-02T15:04:05.000000Z"

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format(timestampFormat)
	fmt.Fprintf(w, "%s [%s] %-3s %-4s %s\n",
		ts, shortenSession(event.SessionID), event.Direction.String(), layerLabel(event.Layer), typeLabel(event))

	if event.Mode != 0 || event.PANID != 0 {
		fmt.Fprintf(w, "  Mode: %s  PAN: 0x%04x\n", event.Mode, event.PANID)
	}

	switch {
	case event.Primitive != nil:
		formatPrimitiveDetails(w, event.Primitive)
	case event.Timer != nil:
		formatTimerDetails(w, event.Timer)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Notification != nil:
		formatNotificationDetails(w, event.Notification)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func shortenSession(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func layerLabel(l log.Layer) string {
	if l == log.LayerApplication {
		return "APP"
	}
	return l.String()
}

func typeLabel(event log.Event) string {
	switch {
	case event.Primitive != nil:
		return event.Primitive.Kind.String() + " " + event.Primitive.Name
	case event.Timer != nil:
		return "Timer " + event.Timer.Name
	case event.StateChange != nil:
		return "State"
	case event.Notification != nil:
		return event.Notification.Type.String()
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

func formatPrimitiveDetails(w io.Writer, p *log.PrimitiveEvent) {
	if p.Status != nil {
		fmt.Fprintf(w, "  Status: 0x%02x\n", *p.Status)
	}
	if p.Addr != "" {
		fmt.Fprintf(w, "  Addr: %s\n", p.Addr)
	}
	if p.Channel != nil {
		fmt.Fprintf(w, "  Channel: %d\n", *p.Channel)
	}
	if p.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", p.Detail)
	}
	if p.Filtered {
		fmt.Fprintln(w, "  Filtered")
	}
}

func formatTimerDetails(w io.Writer, t *log.TimerEvent) {
	fmt.Fprintf(w, "  %s", t.Action)
	if t.Action == log.TimerArmed {
		fmt.Fprintf(w, " for %s", formatDuration(t.Duration))
	}
	fmt.Fprintln(w)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatNotificationDetails(w io.Writer, n *log.NotificationEvent) {
	if n.ShortAddr != nil {
		fmt.Fprintf(w, "  Short: 0x%04x\n", *n.ShortAddr)
	}
	if n.ParentAddr != "" {
		fmt.Fprintf(w, "  Parent: %s\n", n.ParentAddr)
	}
	if n.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", n.Detail)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView prints every event matching filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
