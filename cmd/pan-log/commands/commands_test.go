package commands

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
)

var base = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func writeTrace(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.ptrace")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func joinTrace() []log.Event {
	const sess = "3f2a9c1e-5b7d-4e2f-9a10-6c8d0e1f2a3b"
	return []log.Event{
		{Timestamp: base, SessionID: sess, Direction: log.DirectionOut, Layer: log.LayerMAC,
			Category: log.CategoryPrimitive, Mode: log.ModeClassic, DeviceAddr: "00:12:4b:00:00:00:00:01",
			Primitive: &log.PrimitiveEvent{Kind: log.PrimitiveRequest, Name: "SCAN", Detail: "ACTIVE"}},
		{Timestamp: base.Add(100 * time.Millisecond), SessionID: sess, Direction: log.DirectionIn, Layer: log.LayerMAC,
			Category: log.CategoryPrimitive, Mode: log.ModeClassic, PANID: 0x1234,
			Primitive: &log.PrimitiveEvent{Kind: log.PrimitiveIndication, Name: "BEACON_NOTIFY", Addr: "0x0000", Channel: ptr(uint8(2))}},
		{Timestamp: base.Add(200 * time.Millisecond), SessionID: sess, Direction: log.DirectionIn, Layer: log.LayerMAC,
			Category:  log.CategoryPrimitive,
			Primitive: &log.PrimitiveEvent{Kind: log.PrimitiveConfirm, Name: "ASSOCIATE", Status: ptr(uint8(0xe9))}},
		{Timestamp: base.Add(300 * time.Millisecond), SessionID: sess, Layer: log.LayerJoin, Category: log.CategoryTimer,
			Timer: &log.TimerEvent{ID: 7, Name: "SCAN_BACKOFF", Action: log.TimerArmed, Duration: 500 * time.Millisecond}},
		{Timestamp: base.Add(800 * time.Millisecond), SessionID: sess, Layer: log.LayerJoin, Category: log.CategoryTimer,
			Timer: &log.TimerEvent{ID: 7, Name: "SCAN_BACKOFF", Action: log.TimerFired}},
		{Timestamp: base.Add(2 * time.Second), SessionID: sess, Layer: log.LayerJoin, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityJoin, OldState: "JOINING", NewState: "JOINED"}},
		{Timestamp: base.Add(2 * time.Second), SessionID: sess, Direction: log.DirectionOut, Layer: log.LayerApplication,
			Category:     log.CategoryNotification,
			Notification: &log.NotificationEvent{Type: log.NotificationJoined, ShortAddr: ptr(uint16(0x10)), ParentAddr: "00:12:4b:00:00:00:00:c0"}},
		{Timestamp: base.Add(3 * time.Second), SessionID: sess, Layer: log.LayerMAC, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerMAC, Message: "request rejected", Context: "POLL"}},
	}
}

func TestFormatEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, joinTrace()[1])
	out := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:00.100000Z",
		"[3f2a9c1e]",
		"IN  MAC  INDICATION BEACON_NOTIFY",
		"PAN: 0x1234",
		"Addr: 0x0000",
		"Channel: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimerAndNotification(t *testing.T) {
	events := joinTrace()

	var buf bytes.Buffer
	formatEvent(&buf, events[3])
	if !strings.Contains(buf.String(), "ARMED for 500ms") {
		t.Errorf("timer output = %s", buf.String())
	}

	buf.Reset()
	formatEvent(&buf, events[6])
	out := buf.String()
	if !strings.Contains(out, "APP  JOINED") || !strings.Contains(out, "Short: 0x0010") {
		t.Errorf("notification output = %s", out)
	}
}

func TestRunViewFilters(t *testing.T) {
	path := writeTrace(t, joinTrace())

	opts := FilterOptions{Category: "timer", Timer: "scan_backoff"}
	filter, err := opts.Build()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if n := strings.Count(out, "Timer SCAN_BACKOFF"); n != 2 {
		t.Errorf("got %d timer events, want 2:\n%s", n, out)
	}
	if strings.Contains(out, "SCAN\n") {
		t.Errorf("primitive leaked through filter:\n%s", out)
	}
}

func TestFilterOptionsErrors(t *testing.T) {
	tests := []FilterOptions{
		{Layer: "wire"},
		{Direction: "sideways"},
		{Category: "message"},
		{TimeStart: "yesterday"},
		{TimeEnd: "2026-13-01"},
	}
	for _, o := range tests {
		if _, err := o.Build(); err == nil {
			t.Errorf("Build(%+v) succeeded, want error", o)
		}
	}
}

func TestRunStats(t *testing.T) {
	path := writeTrace(t, joinTrace())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Events: 8",
		"SCAN:",
		"ASSOCIATE:",
		"SCAN_BACKOFF:",
		"Sessions: 1",
		"Device: 00:12:4b:00:00:00:00:01",
		"Last state: JOINED",
		"Joined after 2s",
		"Joins: 1",
		"Errors: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCounts(t *testing.T) {
	s := newStats()
	for _, e := range joinTrace() {
		s.add(e)
	}
	if s.Requests["SCAN"] != 1 {
		t.Errorf("SCAN requests = %d", s.Requests["SCAN"])
	}
	if s.Failures["ASSOCIATE"] != 1 {
		t.Errorf("ASSOCIATE failures = %d", s.Failures["ASSOCIATE"])
	}
	if s.TimerFires["SCAN_BACKOFF"] != 1 {
		t.Errorf("SCAN_BACKOFF fires = %d", s.TimerFires["SCAN_BACKOFF"])
	}
	if s.EventsByDirection[log.DirectionIn] != 6 {
		t.Errorf("IN events = %d", s.EventsByDirection[log.DirectionIn])
	}
}

func TestRunFilter(t *testing.T) {
	path := writeTrace(t, joinTrace())
	out := filepath.Join(t.TempDir(), "mac.ptrace")

	layer := log.LayerMAC
	n, err := RunFilter(path, out, log.Filter{Layer: &layer})
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("filtered %d events, want 4", n)
	}

	r, err := log.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Fatalf("read back %d events, want 4", len(events))
	}
	for _, e := range events {
		if e.Layer != log.LayerMAC {
			t.Errorf("unexpected layer %s", e.Layer)
		}
	}
}

func TestRunExportCSV(t *testing.T) {
	path := writeTrace(t, joinTrace())

	var buf bytes.Buffer
	if err := RunExport(path, "csv", log.Filter{}, &buf); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 9 {
		t.Fatalf("got %d rows, want 9", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	assoc := rows[3]
	if assoc[7] != "CONFIRM" || assoc[8] != "ASSOCIATE" || assoc[9] != "233" {
		t.Errorf("associate row = %v", assoc)
	}
	if rows[2][6] != "0x1234" || rows[1][5] != "CLASSIC" {
		t.Errorf("pan/mode columns = %v / %v", rows[2], rows[1])
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := writeTrace(t, joinTrace())

	var buf bytes.Buffer
	if err := RunExport(path, "jsonl", log.Filter{}, &buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 8 {
		t.Errorf("got %d lines, want 8", len(lines))
	}
	if !strings.Contains(lines[0], `"SessionID":"3f2a9c1e`) {
		t.Errorf("first line = %s", lines[0])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := writeTrace(t, joinTrace())
	if err := RunExport(path, "xml", log.Filter{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.ptrace")
	if err := RunStats(missing, &bytes.Buffer{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("RunStats error = %v", err)
	}
}
