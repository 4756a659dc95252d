// Package filter derives the visible subset of a task collection.
package filter

import (
	"fmt"
	"strings"

	"todo/internal/service"
)

// Mode selects which tasks are visible.
type Mode int

const (
	All Mode = iota
	Completed
	Incomplete
)

func (m Mode) String() string {
	switch m {
	case Completed:
		return "completed"
	case Incomplete:
		return "incomplete"
	default:
		return "all"
	}
}

// Parse converts a mode name (case-insensitive, trimmed) to a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "completed", "done":
		return Completed, nil
	case "incomplete", "open":
		return Incomplete, nil
	default:
		return All, fmt.Errorf("invalid filter: %s", s)
	}
}

// Match reports whether t is visible under m.
func (m Mode) Match(t service.Task) bool {
	switch m {
	case Completed:
		return t.Completed
	case Incomplete:
		return !t.Completed
	default:
		return true
	}
}

// Apply returns the tasks visible under m, in collection order.
// The result never shares backing storage with tasks.
func Apply(tasks []service.Task, m Mode) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if m.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
