package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int

	// Requests counts outgoing MAC requests by primitive name.
	Requests map[string]int
	// Failures counts confirms with a non-zero status by primitive name.
	Failures map[string]int
	// TimerFires counts expiries by timer name.
	TimerFires map[string]int

	Sessions       map[string]*SessionStats
	Joins          int
	Disassociation int
	Errors         int

	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for one controller lifetime.
type SessionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	DeviceAddr string
	LastState  string

	// JoinTime is the time from the first event to the first JOINED state.
	JoinTime time.Duration
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Requests:          make(map[string]int),
		Failures:          make(map[string]int),
		TimerFires:        make(map[string]int),
		Sessions:          make(map[string]*SessionStats),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sess, ok := s.Sessions[event.SessionID]
	if !ok {
		sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Sessions[event.SessionID] = sess
	}
	sess.Events++
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}
	if event.DeviceAddr != "" && sess.DeviceAddr == "" {
		sess.DeviceAddr = event.DeviceAddr
	}

	switch {
	case event.Primitive != nil:
		p := event.Primitive
		switch p.Kind {
		case log.PrimitiveRequest:
			s.Requests[p.Name]++
		case log.PrimitiveConfirm:
			if p.Status != nil && *p.Status != 0 {
				s.Failures[p.Name]++
			}
		}
	case event.Timer != nil:
		if event.Timer.Action == log.TimerFired {
			s.TimerFires[event.Timer.Name]++
		}
	case event.StateChange != nil:
		if event.StateChange.Entity == log.StateEntityJoin {
			sess.LastState = event.StateChange.NewState
			if event.StateChange.NewState == "JOINED" && sess.JoinTime == 0 {
				sess.JoinTime = event.Timestamp.Sub(sess.FirstSeen)
			}
		}
	case event.Notification != nil:
		switch event.Notification.Type {
		case log.NotificationJoined:
			s.Joins++
		case log.NotificationDisassociated:
			s.Disassociation++
		}
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Join Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerMAC, log.LayerJoin, log.LayerApplication} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryPrimitive, log.CategoryTimer, log.CategoryState, log.CategoryNotification, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	printCounts(w, "Requests:", stats.Requests)
	printCounts(w, "Failed Confirms:", stats.Failures)
	printCounts(w, "Timer Expiries:", stats.TimerFires)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	ids := make([]string, 0, len(stats.Sessions))
	for id := range stats.Sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return stats.Sessions[ids[i]].FirstSeen.Before(stats.Sessions[ids[j]].FirstSeen)
	})
	for _, id := range ids {
		s := stats.Sessions[id]
		fmt.Fprintf(w, "  [%s] %d events, duration %s\n",
			shortenSession(id), s.Events, s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond))
		if s.DeviceAddr != "" {
			fmt.Fprintf(w, "           Device: %s\n", s.DeviceAddr)
		}
		if s.LastState != "" {
			fmt.Fprintf(w, "           Last state: %s\n", s.LastState)
		}
		if s.JoinTime > 0 {
			fmt.Fprintf(w, "           Joined after %s\n", s.JoinTime.Round(time.Millisecond))
		}
	}

	if stats.Joins > 0 || stats.Disassociation > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Joins: %d  Disassociations: %d\n", stats.Joins, stats.Disassociation)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(w, title)
	for _, n := range names {
		fmt.Fprintf(w, "  %-14s %d\n", n+":", counts[n])
	}
	fmt.Fprintln(w)
}
