package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiLoggerFansOut(t *testing.T) {
	var a, b []Event
	m := NewMultiLogger(
		LoggerFunc(func(e Event) { a = append(a, e) }),
		nil,
		LoggerFunc(func(e Event) { b = append(b, e) }),
		NoopLogger{},
	)

	m.Log(Event{SessionID: "x"})
	m.Log(Event{SessionID: "y"})

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("fan out = %d, %d; want 2, 2", len(a), len(b))
	}
	if a[1].SessionID != "y" {
		t.Errorf("order not preserved: %+v", a)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := NewSlogAdapter(logger)

	a.Log(Event{
		SessionID: "abc",
		Direction: DirectionOut,
		Layer:     LayerMAC,
		Category:  CategoryPrimitive,
		Mode:      ModeClassic,
		PANID:     0x00AA,
		Primitive: &PrimitiveEvent{Kind: PrimitiveRequest, Name: "ASSOCIATE", Addr: "0x0000", Channel: ptr(uint8(11))},
	})
	a.Log(Event{
		Category: CategoryTimer,
		Timer:    &TimerEvent{Name: "POLL", Action: TimerArmed, Duration: 500_000_000},
	})
	a.Log(Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: LayerMAC, Message: "busy", Code: ptr(0xE1), Context: "poll"},
	})
	a.Log(Event{
		Category:     CategoryNotification,
		Notification: &NotificationEvent{Type: NotificationStateChanged, Detail: "ORPHAN"},
	})

	out := buf.String()
	for _, want := range []string{
		"msg=trace", "session=abc", "direction=OUT", "primitive=ASSOCIATE",
		"channel=11", "mode=CLASSIC", "pan_id=170",
		"timer=POLL", "action=ARMED", "delay=500ms",
		"error_msg=busy", "error_code=225",
		"notification=STATE_CHANGED", "detail=ORPHAN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewSlogAdapter(logger).Log(Event{SessionID: "quiet"})
	if buf.Len() != 0 {
		t.Errorf("debug trace written at info level: %s", buf.String())
	}
}
