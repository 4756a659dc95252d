// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/backend"
	"todo/internal/config"
	"todo/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service on the user's default Google Tasks list.
// Titles map to titles, notes to details, and status "completed" to Completed.
type Client struct {
	oauth *oauth2.Config
	opts  []option.ClientOption
}

// New creates a Google Tasks client. Requires oauth_client.json so tokens
// can be refreshed.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := loadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{oauth: oauthConfig}, nil
}

// NewWithOptions creates a client whose requests use static tokens and the
// given options (for testing).
func NewWithOptions(opts ...option.ClientOption) *Client {
	return &Client{opts: opts}
}

func loadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// newService builds a Tasks service authorized by tok. With an OAuth config
// the token refreshes itself; otherwise it is used as is.
func (c *Client) newService(ctx context.Context, tok *oauth2.Token) (*tasks.Service, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, service.AuthMissing("")
	}
	var src oauth2.TokenSource = oauth2.StaticTokenSource(tok)
	if c.oauth != nil {
		src = c.oauth.TokenSource(ctx, tok)
	}
	httpClient := oauth2.NewClient(ctx, src)
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return svc, nil
}

func toTask(t *tasks.Task) (service.Task, error) {
	if t == nil || t.Id == "" {
		return service.Task{}, service.Malformed(errors.New("task without id"))
	}
	return service.Task{
		ID:        service.ID(t.Id),
		Title:     t.Title,
		Details:   t.Notes,
		Completed: t.Status == statusCompleted,
	}, nil
}

// ListTasks returns open and completed tasks of the default list in API order.
func (c *Client) ListTasks(ctx context.Context, tok *oauth2.Token) ([]service.Task, error) {
	svc, err := c.newService(ctx, tok)
	if err != nil {
		return nil, err
	}

	result := []service.Task{}
	err = svc.Tasks.List(DefaultListID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				t, err := toTask(item)
				if err != nil {
					return err
				}
				result = append(result, t)
			}
			return nil
		})
	if err != nil {
		return nil, backend.Wrap(err)
	}
	return result, nil
}

// CreateTask creates a new task in the default list.
func (c *Client) CreateTask(ctx context.Context, tok *oauth2.Token, title, details string) (service.Task, error) {
	svc, err := c.newService(ctx, tok)
	if err != nil {
		return service.Task{}, err
	}
	created, err := svc.Tasks.Insert(DefaultListID, &tasks.Task{Title: title, Notes: details}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, backend.Wrap(err)
	}
	return toTask(created)
}

// UpdateTask patches the title and notes of a task.
func (c *Client) UpdateTask(ctx context.Context, tok *oauth2.Token, id service.ID, title, details string) (service.Task, error) {
	svc, err := c.newService(ctx, tok)
	if err != nil {
		return service.Task{}, err
	}
	patch := &tasks.Task{Title: title, Notes: details}
	if details == "" {
		patch.ForceSendFields = []string{"Notes"}
	}
	updated, err := svc.Tasks.Patch(DefaultListID, string(id), patch).Context(ctx).Do()
	if err != nil {
		return service.Task{}, backend.Wrap(err)
	}
	return toTask(updated)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, tok *oauth2.Token, id service.ID) error {
	svc, err := c.newService(ctx, tok)
	if err != nil {
		return err
	}
	if err := svc.Tasks.Delete(DefaultListID, string(id)).Context(ctx).Do(); err != nil {
		return backend.Wrap(err)
	}
	return nil
}

// ToggleTask sets the task's status to the negation of current.
// Reopening a task also clears its completion timestamp.
func (c *Client) ToggleTask(ctx context.Context, tok *oauth2.Token, id service.ID, current bool) (service.Task, error) {
	svc, err := c.newService(ctx, tok)
	if err != nil {
		return service.Task{}, err
	}
	patch := &tasks.Task{Status: statusCompleted}
	if current {
		patch.Status = statusNeedsAction
		patch.NullFields = []string{"Completed"}
	}
	updated, err := svc.Tasks.Patch(DefaultListID, string(id), patch).Context(ctx).Do()
	if err != nil {
		return service.Task{}, backend.Wrap(err)
	}
	return toTask(updated)
}
