package log

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.ptrace")

	for run := 0; run < 2; run++ {
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatal(err)
		}
		l.Log(Event{Timestamp: time.Unix(int64(run), 0).UTC(), SessionID: "run"})
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2 after reopening", len(events))
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.ptrace")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				l.Log(Event{Timestamp: time.Now(), Category: CategoryTimer,
					Timer: &TimerEvent{Name: "PAS", Action: TimerFired}})
			}
		}()
	}
	wg.Wait()

	written, dropped := l.Stats()
	if written != 200 || dropped != 0 {
		t.Errorf("Stats() = %d, %d; want 200, 0", written, dropped)
	}
	l.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 200 {
		t.Errorf("read %d events, want 200", len(events))
	}
}

func TestFileLoggerClose(t *testing.T) {
	l, err := NewFileLogger(filepath.Join(t.TempDir(), "node.ptrace"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	l.Log(Event{})
	if written, _ := l.Stats(); written != 0 {
		t.Error("Log after Close should be ignored")
	}
}

func TestFileLoggerBadPath(t *testing.T) {
	if _, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "node.ptrace")); err == nil {
		t.Error("expected error for missing directory")
	}
}
