// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/oauth2"

	"todo/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  map[string]int

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
	ToggleErr error

	// ToggleEcho, when set, is the completed value the fake "server" stores
	// on toggle regardless of what was requested.
	ToggleEcho *bool

	// BeforeCall runs at the start of every operation, outside the lock.
	BeforeCall func(op string)

	// LastToken is the access token of the most recent call.
	LastToken string
	// LastToggleRequest is the completed value sent by the most recent toggle.
	LastToggleRequest bool
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		calls:  make(map[string]int),
	}
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title, details string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.newID(), Title: title, Details: details, Completed: completed}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of the fake server's tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns how many times op was invoked.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeService) newID() service.ID {
	id := service.ID(strconv.Itoa(f.nextID))
	f.nextID++
	return id
}

func (f *FakeService) begin(op string, tok *oauth2.Token) {
	if f.BeforeCall != nil {
		f.BeforeCall(op)
	}
	f.mu.Lock()
	f.calls[op]++
	if tok != nil {
		f.LastToken = tok.AccessToken
	}
}

func (f *FakeService) index(id service.ID) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound() error {
	return service.FromStatus(404, "task not found", nil)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, tok *oauth2.Token) ([]service.Task, error) {
	f.begin("list", tok)
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]service.Task{}, f.tasks...), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, tok *oauth2.Token, title, details string) (service.Task, error) {
	f.begin("create", tok)
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	t := service.Task{ID: f.newID(), Title: title, Details: details}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, tok *oauth2.Token, id service.ID, title, details string) (service.Task, error) {
	f.begin("update", tok)
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	i := f.index(id)
	if i < 0 {
		return service.Task{}, notFound()
	}
	f.tasks[i].Title = title
	f.tasks[i].Details = details
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, tok *oauth2.Token, id service.ID) error {
	f.begin("delete", tok)
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	i := f.index(id)
	if i < 0 {
		return notFound()
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, tok *oauth2.Token, id service.ID, current bool) (service.Task, error) {
	f.begin("toggle", tok)
	defer f.mu.Unlock()
	f.LastToggleRequest = !current
	if f.ToggleErr != nil {
		return service.Task{}, f.ToggleErr
	}
	i := f.index(id)
	if i < 0 {
		return service.Task{}, notFound()
	}
	completed := !current
	if f.ToggleEcho != nil {
		completed = *f.ToggleEcho
	}
	f.tasks[i].Completed = completed
	return f.tasks[i], nil
}
