// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the remote operations the task store relies on.
// Every call is a single round trip: no retries, no caching.
type Service interface {
	// ListTasks returns every task visible to the token's owner, in server order.
	ListTasks(ctx context.Context, tok *oauth2.Token) ([]Task, error)

	// CreateTask creates a task and returns the server's copy of it.
	// Callers validate title and details before calling.
	CreateTask(ctx context.Context, tok *oauth2.Token, title, details string) (Task, error)

	// UpdateTask replaces the title and details of a task.
	UpdateTask(ctx context.Context, tok *oauth2.Token, id ID, title, details string) (Task, error)

	// DeleteTask deletes a task. Deleting an unknown id is a remote client error.
	DeleteTask(ctx context.Context, tok *oauth2.Token, id ID) error

	// ToggleTask asks the server to set completed to !current.
	// The returned task's Completed value is authoritative.
	ToggleTask(ctx context.Context, tok *oauth2.Token, id ID, current bool) (Task, error)
}
