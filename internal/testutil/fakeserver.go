package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// FakeServer implements the /todos REST contract in memory.
type FakeServer struct {
	mu     sync.Mutex
	tasks  []wireTask
	nextID int

	// Users maps username to password for /auth/login.
	Users map[string]string
	// Token is the bearer token issued on login and required by /todos.
	Token string

	// FailStatus, when non-zero, makes every /todos request fail with it.
	FailStatus int
	// MalformedBody makes successful /todos responses return invalid JSON.
	MalformedBody bool
	// ToggleEcho, when set, overrides the completed value stored on toggle.
	ToggleEcho *bool

	// LastRequestID is the X-Request-ID of the most recent /todos request.
	LastRequestID string
	// LastToggleBody is the completed value of the most recent toggle request.
	LastToggleBody *bool
}

// wireTask uses a numeric id, as the reference backend does.
type wireTask struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Details   string `json:"details"`
	Completed bool   `json:"completed"`
}

// NewFakeServer returns a server that accepts token for /todos.
func NewFakeServer(token string) *FakeServer {
	return &FakeServer{
		Token:  token,
		Users:  make(map[string]string),
		nextID: 1,
	}
}

// Seed adds a task and returns its id.
func (s *FakeServer) Seed(title, details string, completed bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := wireTask{ID: s.nextID, Title: title, Details: details, Completed: completed}
	s.nextID++
	s.tasks = append(s.tasks, t)
	return t.ID
}

// Len returns the number of stored tasks.
func (s *FakeServer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Handler returns the HTTP handler.
func (s *FakeServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", s.login)
	r.Route("/todos", func(r chi.Router) {
		r.Use(s.authorize)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.delete)
		r.Put("/{id}/toggle", s.toggle)
	})
	return r
}

func (s *FakeServer) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.LastRequestID = r.Header.Get("X-Request-ID")
		fail := s.FailStatus
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if fail != 0 {
			writeDetail(w, fail, http.StatusText(fail))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if pw, ok := s.Users[req.Username]; !ok || pw != req.Password {
		writeDetail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"token": s.Token})
}

func (s *FakeServer) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]wireTask{}, s.tasks...)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

type taskInput struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

func (s *FakeServer) create(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	s.mu.Lock()
	t := wireTask{ID: s.nextID, Title: in.Title, Details: in.Details}
	s.nextID++
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusCreated, t)
}

func (s *FakeServer) update(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	i := s.index(chi.URLParam(r, "id"))
	if i < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "task not found")
		return
	}
	s.tasks[i].Title = in.Title
	s.tasks[i].Details = in.Details
	t := s.tasks[i]
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, t)
}

func (s *FakeServer) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.index(chi.URLParam(r, "id"))
	if i < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "task not found")
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *FakeServer) toggle(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Completed == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "completed is required")
		return
	}
	s.mu.Lock()
	s.LastToggleBody = in.Completed
	i := s.index(chi.URLParam(r, "id"))
	if i < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "task not found")
		return
	}
	completed := *in.Completed
	if s.ToggleEcho != nil {
		completed = *s.ToggleEcho
	}
	s.tasks[i].Completed = completed
	t := s.tasks[i]
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, t)
}

func (s *FakeServer) index(raw string) int {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return -1
	}
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *FakeServer) writeJSON(w http.ResponseWriter, status int, v any) {
	s.mu.Lock()
	malformed := s.MalformedBody
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if malformed {
		w.Write([]byte(`{"id": `))
		return
	}
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
