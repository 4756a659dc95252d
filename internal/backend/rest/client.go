// Package rest implements service.Service against the /todos REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"todo/internal/backend"
	"todo/internal/service"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries a per-request UUID.
const RequestIDHeader = "X-Request-ID"

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type taskBody struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

type toggleBody struct {
	Completed bool `json:"completed"`
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, tok *oauth2.Token) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, tok, http.MethodGet, "/todos", nil, &tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == "" {
			return nil, service.Malformed(errors.New("task without id"))
		}
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, tok *oauth2.Token, title, details string) (service.Task, error) {
	return c.doTask(ctx, tok, http.MethodPost, "/todos", taskBody{Title: title, Details: details})
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, tok *oauth2.Token, id service.ID, title, details string) (service.Task, error) {
	return c.doTask(ctx, tok, http.MethodPut, taskPath(id), taskBody{Title: title, Details: details})
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, tok *oauth2.Token, id service.ID) error {
	return c.do(ctx, tok, http.MethodDelete, taskPath(id), nil, nil)
}

// ToggleTask implements service.Service. It sends the negation of current.
func (c *Client) ToggleTask(ctx context.Context, tok *oauth2.Token, id service.ID, current bool) (service.Task, error) {
	return c.doTask(ctx, tok, http.MethodPut, taskPath(id)+"/toggle", toggleBody{Completed: !current})
}

func taskPath(id service.ID) string {
	return "/todos/" + url.PathEscape(string(id))
}

func (c *Client) doTask(ctx context.Context, tok *oauth2.Token, method, path string, body any) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, tok, method, path, body, &task); err != nil {
		return service.Task{}, err
	}
	if task.ID == "" {
		return service.Task{}, service.Malformed(errors.New("task without id"))
	}
	return task, nil
}

// do performs one round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, tok *oauth2.Token, method, path string, body, out any) error {
	if tok == nil || tok.AccessToken == "" {
		return service.AuthMissing("")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &service.Error{Kind: service.KindValidation, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &service.Error{Kind: service.KindValidation, Message: "invalid request url " + c.baseURL + path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	tok.SetAuthHeader(req)

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return backend.Wrap(err)
	}
	defer res.Body.Close()

	c.log.Debug("request", "method", method, "path", path, "status", res.StatusCode, "request_id", reqID)

	if err := googleapi.CheckResponse(res); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			apiErr.Message = detailMessage(apiErr.Body)
		}
		return backend.Wrap(err)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return service.Malformed(err)
	}
	return nil
}

// detailMessage extracts {"detail": "..."} or {"message": "..."} from an
// error body.
func detailMessage(body string) string {
	var v struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return ""
	}
	if s, ok := v.Detail.(string); ok && s != "" {
		return s
	}
	return v.Message
}
