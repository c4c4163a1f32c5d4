package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nghiaquy1991/PAN/pkg/log"
)

// RunExport writes the matching events to w as JSON lines or CSV.
func RunExport(path, format string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

var csvHeader = []string{"timestamp", "session_id", "direction", "layer", "category", "mode", "pan_id", "type", "name", "status", "detail"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	var typ, name, status, detail string
	switch {
	case event.Primitive != nil:
		p := event.Primitive
		typ, name, detail = p.Kind.String(), p.Name, p.Detail
		if p.Status != nil {
			status = strconv.Itoa(int(*p.Status))
		}
	case event.Timer != nil:
		typ, name = "TIMER", event.Timer.Name
		detail = event.Timer.Action.String()
	case event.StateChange != nil:
		typ, name = "STATE", event.StateChange.Entity.String()
		detail = event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.Notification != nil:
		typ, name = "NOTIFICATION", event.Notification.Type.String()
		detail = event.Notification.Detail
	case event.Error != nil:
		typ, name = "ERROR", event.Error.Layer.String()
		detail = event.Error.Message
		if event.Error.Code != nil {
			status = strconv.Itoa(*event.Error.Code)
		}
	}

	pan := ""
	if event.PANID != 0 {
		pan = fmt.Sprintf("0x%04x", event.PANID)
	}
	mode := ""
	if event.Mode != 0 {
		mode = event.Mode.String()
	}

	return []string{
		event.Timestamp.UTC().Format(timestampFormat),
		event.SessionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		mode,
		pan,
		typ,
		name,
		status,
		detail,
	}
}
