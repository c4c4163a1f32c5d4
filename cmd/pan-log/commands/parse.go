// Package commands implements the pan-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/log"
)

// FilterOptions holds the textual filter flags shared by view, export and
// filter.
type FilterOptions struct {
	SessionID string
	Layer     string
	Direction string
	Category  string
	Primitive string
	Timer     string
	TimeStart string
	TimeEnd   string
}

// Build converts the flags into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	f := log.Filter{
		SessionID: o.SessionID,
		Primitive: strings.ToUpper(o.Primitive),
		Timer:     strings.ToUpper(o.Timer),
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, fmt.Errorf("invalid time-start format: %w", err)
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, fmt.Errorf("invalid time-end format: %w", err)
		}
		f.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := ParseLayer(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirection(o.Direction)
		if err != nil {
			return f, err
		}
		f.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategory(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	return f, nil
}

// ParseLayer parses a layer name (case-insensitive).
func ParseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "mac":
		return log.LayerMAC, nil
	case "join":
		return log.LayerJoin, nil
	case "app", "application":
		return log.LayerApplication, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be mac, join, or app)", s)
	}
}

// ParseDirection parses a direction name (case-insensitive).
func ParseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "primitive":
		return log.CategoryPrimitive, nil
	case "timer":
		return log.CategoryTimer, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "notification":
		return log.CategoryNotification, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be primitive, timer, state, error, or notification)", s)
	}
}
