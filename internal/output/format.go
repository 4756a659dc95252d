// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/service"
)

const (
	// Separator is the separator line around section headers.
	Separator = "------------"

	// detailsIndent aligns details under the title.
	detailsIndent = "          "
)

// FormatTask formats one task.
// Format: "{ID:>4}  [x] {TITLE}\n", followed by the details on an indented
// line when present.
func FormatTask(w io.Writer, task service.Task) {
	mark := "[ ]"
	if task.Completed {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%4s  %s %s\n", task.ID, mark, normalizeTitle(task.Title))
	if details := normalizeText(task.Details); strings.TrimSpace(details) != "" {
		fmt.Fprintf(w, "%s%s\n", detailsIndent, details)
	}
}

// FormatTasks formats tasks in order.
func FormatTasks(w io.Writer, tasks []service.Task) {
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// FormatHeader formats a section header.
func FormatHeader(w io.Writer, title string) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, Separator)
}

// normalizeTitle normalizes a task title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeText replaces newlines with spaces.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
