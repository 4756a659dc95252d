// Package store owns the in-memory task collection and keeps it in step
// with the remote service.
package store

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"todo/internal/filter"
	"todo/internal/service"
	"todo/internal/session"
)

// DefaultTimeout bounds each remote call unless WithTimeout says otherwise.
const DefaultTimeout = 10 * time.Second

// State is the store's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Mutating
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Mutating:
		return "mutating"
	case Error:
		return "error"
	default:
		return "uninitialized"
	}
}

// Snapshot is a consistent view of the store. Its slices are never
// modified after publication and must not be modified by the receiver.
type Snapshot struct {
	State   State
	Tasks   []service.Task
	Visible []service.Task
	Filter  filter.Mode
	Err     error
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger for operation outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFilter sets the initial filter mode.
func WithFilter(m filter.Mode) Option {
	return func(s *Store) {
		s.mode = m
	}
}

// Store is the task collection plus its filtered view and last error.
//
// Remote operations are serialized: at most one call is in flight and
// results apply in the order operations acquired the lock. Reads and
// SetFilter never wait for a remote call.
type Store struct {
	svc     service.Service
	tokens  session.TokenProvider
	timeout time.Duration
	log     *slog.Logger

	// opMu serializes remote operations.
	opMu sync.Mutex

	mu      sync.RWMutex
	state   State
	tasks   []service.Task
	visible []service.Task
	mode    filter.Mode
	err     error
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a Store backed by svc. Every remote call is authorized with
// the token tokens supplies at the time of the call.
func New(svc service.Service, tokens session.TokenProvider, opts ...Option) *Store {
	s := &Store{
		svc:     svc,
		tokens:  tokens,
		timeout: DefaultTimeout,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tasks:   []service.Task{},
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.visible = filter.Apply(s.tasks, s.mode)
	return s
}

// mutation derives the next collection from the current one. It must not
// modify its argument.
type mutation func(tasks []service.Task) []service.Task

// call performs one remote round trip and returns how to apply its result.
type call func(ctx context.Context, tok *oauth2.Token) (mutation, error)

// Load fetches the full collection and replaces the local one. On failure
// the existing collection is kept.
func (s *Store) Load(ctx context.Context) error {
	return s.serial(ctx, "load tasks", Loading, func(ctx context.Context, tok *oauth2.Token) (mutation, error) {
		list, err := s.svc.ListTasks(ctx, tok)
		if err != nil {
			return nil, err
		}
		fresh := append(make([]service.Task, 0, len(list)), list...)
		return func([]service.Task) []service.Task { return fresh }, nil
	})
}

// AddTask creates a task and appends the server's copy to the collection.
// An empty title or details fails without contacting the server.
func (s *Store) AddTask(ctx context.Context, title, details string) error {
	const op = "add task"
	if blank(title) {
		return s.reject(op, service.Validation(op, "title is required"))
	}
	if blank(details) {
		return s.reject(op, service.Validation(op, "details are required"))
	}
	return s.serial(ctx, op, Mutating, func(ctx context.Context, tok *oauth2.Token) (mutation, error) {
		t, err := s.svc.CreateTask(ctx, tok, title, details)
		if err != nil {
			return nil, err
		}
		return upsert(t), nil
	})
}

// UpdateTask replaces a task's title and details. The entry is replaced in
// place with the server's copy.
func (s *Store) UpdateTask(ctx context.Context, id service.ID, title, details string) error {
	const op = "update task"
	if id == "" {
		return s.reject(op, service.Validation(op, "task id is required"))
	}
	if blank(title) {
		return s.reject(op, service.Validation(op, "title is required"))
	}
	return s.serial(ctx, op, Mutating, func(ctx context.Context, tok *oauth2.Token) (mutation, error) {
		t, err := s.svc.UpdateTask(ctx, tok, id, title, details)
		if err != nil {
			return nil, err
		}
		return upsert(t), nil
	})
}

// DeleteTask deletes a task. Whether id exists is for the server to decide.
func (s *Store) DeleteTask(ctx context.Context, id service.ID) error {
	const op = "delete task"
	if id == "" {
		return s.reject(op, service.Validation(op, "task id is required"))
	}
	return s.serial(ctx, op, Mutating, func(ctx context.Context, tok *oauth2.Token) (mutation, error) {
		if err := s.svc.DeleteTask(ctx, tok, id); err != nil {
			return nil, err
		}
		return remove(id), nil
	})
}

// ToggleTask asks the server to flip a task's completed flag. The local
// entry changes only once the server answers, and takes the server's value.
func (s *Store) ToggleTask(ctx context.Context, id service.ID) error {
	const op = "toggle task"
	var (
		pub publication
		err error
	)
	func() {
		s.opMu.Lock()
		defer s.opMu.Unlock()

		current, ok := s.Lookup(id)
		if !ok {
			pub, err = s.fail(op, service.Validation(op, "no task with id "+id.String()))
			return
		}
		pub, err = s.exec(ctx, op, Mutating, func(ctx context.Context, tok *oauth2.Token) (mutation, error) {
			t, err := s.svc.ToggleTask(ctx, tok, id, current.Completed)
			if err != nil {
				return nil, err
			}
			return upsert(t), nil
		})
	}()
	pub.send()
	return err
}

// SetFilter changes the filter mode and recomputes the visible tasks.
func (s *Store) SetFilter(m filter.Mode) {
	s.mu.Lock()
	s.mode = m
	s.visible = filter.Apply(s.tasks, m)
	snap, subs := s.publishLocked()
	s.mu.Unlock()

	s.log.Debug("filter changed", "filter", m.String(), "visible", len(snap.Visible))
	notify(subs, snap)
}

// Tasks returns the full collection.
func (s *Store) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks
}

// Visible returns the tasks that pass the current filter.
func (s *Store) Visible() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// Filter returns the current filter mode.
func (s *Store) Filter() filter.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Err returns the error of the last failed operation, or nil if the last
// operation succeeded.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the current state, collection, view, filter and error.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Lookup returns the task with id.
func (s *Store) Lookup(id service.ID) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return service.Task{}, false
}

// Subscribe registers fn to receive a snapshot after every operation,
// successful or not. fn runs after the operation has released the store,
// so it may start further operations. Calling the returned func
// unregisters fn.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// publication is a snapshot waiting to be delivered to subscribers.
type publication struct {
	snap Snapshot
	subs []func(Snapshot)
}

func (p publication) send() {
	notify(p.subs, p.snap)
}

func (s *Store) serial(ctx context.Context, op string, running State, c call) error {
	var (
		pub publication
		err error
	)
	func() {
		s.opMu.Lock()
		defer s.opMu.Unlock()
		pub, err = s.exec(ctx, op, running, c)
	}()
	pub.send()
	return err
}

// reject records a failure that needs no remote call. It waits for any
// in-flight operation so the state never leaves Loading or Mutating early.
func (s *Store) reject(op string, err error) error {
	s.opMu.Lock()
	pub, e := s.fail(op, err)
	s.opMu.Unlock()
	pub.send()
	return e
}

// exec runs c with the current token. The caller holds opMu and delivers
// the returned publication after releasing it.
func (s *Store) exec(ctx context.Context, op string, running State, c call) (publication, error) {
	tok, ok := s.tokens.Token()
	if !ok {
		return s.fail(op, service.AuthMissing(op))
	}

	s.mu.Lock()
	s.state = running
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	apply, err := c(ctx, tok)
	if err != nil {
		return s.fail(op, err)
	}
	return s.commit(op, apply, time.Since(start)), nil
}

func (s *Store) commit(op string, apply mutation, elapsed time.Duration) publication {
	s.mu.Lock()
	s.tasks = apply(s.tasks)
	s.visible = filter.Apply(s.tasks, s.mode)
	s.state = Ready
	s.err = nil
	snap, subs := s.publishLocked()
	s.mu.Unlock()

	s.log.Debug("task operation", "op", op, "outcome", "ok", "tasks", len(snap.Tasks), "elapsed", elapsed)
	return publication{snap: snap, subs: subs}
}

func (s *Store) fail(op string, err error) (publication, error) {
	e := service.WithOp(op, err)

	s.mu.Lock()
	s.state = Error
	s.err = e
	snap, subs := s.publishLocked()
	s.mu.Unlock()

	s.log.Debug("task operation", "op", op, "outcome", e.Kind.String(), "error", e.Error())
	return publication{snap: snap, subs: subs}, e
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:   s.state,
		Tasks:   s.tasks,
		Visible: s.visible,
		Filter:  s.mode,
		Err:     s.err,
	}
}

// publishLocked returns the snapshot to publish and the subscribers to
// publish it to, in registration order.
func (s *Store) publishLocked() (Snapshot, []func(Snapshot)) {
	subs := make([]func(Snapshot), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return s.snapshotLocked(), subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func indexOf(tasks []service.Task, id service.ID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// upsert replaces the entry with t's id in place, or appends t.
func upsert(t service.Task) mutation {
	return func(tasks []service.Task) []service.Task {
		out := make([]service.Task, len(tasks), len(tasks)+1)
		copy(out, tasks)
		if i := indexOf(out, t.ID); i >= 0 {
			out[i] = t
			return out
		}
		return append(out, t)
	}
}

// remove drops the entry with id, keeping the order of the rest.
func remove(id service.ID) mutation {
	return func(tasks []service.Task) []service.Task {
		out := make([]service.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	}
}
