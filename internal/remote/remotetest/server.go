// Package remotetest runs an in-memory board service for tests.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dori/plando/internal/model"
	"github.com/gorilla/mux"
)

// Request is one request the server received
type Request struct {
	Method string
	Path   string
}

type failure struct {
	method string
	prefix string
	status int
}

type subTask struct {
	ID    string `json:"_id,omitempty"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type task struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    string    `json:"deadline,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"piority"`
	SubTasks    []subTask `json:"subTasks"`
}

type column struct {
	ID    string `json:"_id,omitempty"`
	Title string `json:"title"`
	tasks []task
}

type board struct {
	ID      string    `json:"_id,omitempty"`
	Title   string    `json:"title"`
	Columns []*column `json:"columns"`
}

// Server is a fake board service. The zero value is not usable; use NewServer.
type Server struct {
	// Token is required as bearer credential when non-empty and is
	// handed out by /auth/login
	Token string

	mu       sync.Mutex
	srv      *httptest.Server
	boards   []*board
	users    map[string]string
	seq      int
	requests []Request
	failures []failure
}

// NewServer starts a fake service that is closed when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Token: "test-token",
		users: make(map[string]string),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.record, s.inject)

	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", s.signup).Methods(http.MethodPost)

	boards := api.PathPrefix("/boards").Subrouter()
	boards.Use(s.authorize)
	boards.HandleFunc("", s.listBoards).Methods(http.MethodGet)
	boards.HandleFunc("", s.createBoard).Methods(http.MethodPost)
	boards.HandleFunc("/{board}", s.getBoard).Methods(http.MethodGet)
	boards.HandleFunc("/{board}", s.updateBoard).Methods(http.MethodPut)
	boards.HandleFunc("/{board}", s.deleteBoard).Methods(http.MethodDelete)
	boards.HandleFunc("/{board}/columns", s.listColumns).Methods(http.MethodGet)
	boards.HandleFunc("/{board}/columns/{column}", s.renameColumn).Methods(http.MethodPut)
	boards.HandleFunc("/{board}/columns/{column}", s.deleteColumn).Methods(http.MethodDelete)
	boards.HandleFunc("/{board}/columns/{column}/tasks", s.listTasks).Methods(http.MethodGet)
	boards.HandleFunc("/{board}/columns/{column}/tasks", s.createTask).Methods(http.MethodPost)
	boards.HandleFunc("/{board}/columns/{column}/tasks/order", s.reorderTasks).Methods(http.MethodPut)
	boards.HandleFunc("/{board}/columns/{column}/tasks/{task}", s.updateTask).Methods(http.MethodPatch)
	boards.HandleFunc("/{board}/columns/{column}/tasks/{task}", s.deleteTask).Methods(http.MethodDelete)
	boards.HandleFunc("/{board}/columns/{column}/tasks/{task}/subtasks/{subtask}/toggle", s.toggleSubTask).Methods(http.MethodPatch)

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the service root, the value a client uses as base URL
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

// AddUser registers credentials accepted by /auth/login
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// Seed loads boards into the service. Entities keep their ids; empty ids
// are assigned.
func (s *Server) Seed(boards ...model.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mb := range boards {
		b := &board{ID: mb.ID, Title: mb.Title, Columns: []*column{}}
		if b.ID == "" {
			b.ID = s.nextID("b")
		}
		for _, mc := range mb.Columns {
			c := &column{ID: mc.ID, Title: mc.Title, tasks: []task{}}
			if c.ID == "" {
				c.ID = s.nextID("c")
			}
			for _, mt := range mc.Tasks {
				c.tasks = append(c.tasks, s.fromModel(mt))
			}
			b.Columns = append(b.Columns, c)
		}
		s.boards = append(s.boards, b)
	}
}

// FailNext makes the next request matching method and path prefix fail
// with a 500. The prefix is relative to URL(), e.g. "/boards/b1".
func (s *Server) FailNext(method, pathPrefix string) {
	s.FailNextWith(method, pathPrefix, http.StatusInternalServerError)
}

// FailNextWith is FailNext with a chosen status code
func (s *Server) FailNextWith(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, prefix: pathPrefix, status: status})
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path prefix.
// An empty method matches any method.
func (s *Server) Count(method, pathPrefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if (method == "" || r.Method == method) && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// ColumnIDs returns the service's column order for a board
func (s *Server) ColumnIDs(boardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(boardID)
	if b == nil {
		return nil
	}
	ids := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		ids[i] = c.ID
	}
	return ids
}

// TaskIDs returns the service's task order for a column
func (s *Server) TaskIDs(boardID, columnID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.column(boardID, columnID)
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.tasks))
	for i, t := range c.tasks {
		ids[i] = t.ID
	}
	return ids
}

// HasBoard reports whether the service still stores a board
func (s *Server) HasBoard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board(id) != nil
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, 100+s.seq)
}

func (s *Server) fromModel(mt model.Task) task {
	t := task{
		ID:          mt.ID,
		Title:       mt.Title,
		Description: mt.Description,
		Status:      string(mt.Status),
		Priority:    string(mt.Priority),
		SubTasks:    []subTask{},
	}
	if t.ID == "" {
		t.ID = s.nextID("t")
	}
	if mt.Deadline != nil {
		t.Deadline = mt.Deadline.UTC().Format(time.RFC3339)
	}
	for _, st := range mt.SubTasks {
		id := st.ID
		if id == "" {
			id = s.nextID("s")
		}
		t.SubTasks = append(t.SubTasks, subTask{ID: id, Title: st.Title, Done: st.Done})
	}
	return t
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")
		s.mu.Lock()
		for i, f := range s.failures {
			if f.method == r.Method && strings.HasPrefix(path, f.prefix) {
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				s.mu.Unlock()
				writeError(w, f.status, "injected failure")
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) board(id string) *board {
	for _, b := range s.boards {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *Server) column(boardID, columnID string) *column {
	b := s.board(boardID)
	if b == nil {
		return nil
	}
	for _, c := range b.Columns {
		if c.ID == columnID {
			return c
		}
	}
	return nil
}

func taskIndex(c *column, id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	s.mu.Lock()
	pw, ok := s.users[in.Email]
	token := s.Token
	s.mu.Unlock()
	if !ok || pw != in.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.Email]; ok {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	s.users[in.Email] = in.Password
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
}

func (s *Server) listBoards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.boards
	if out == nil {
		out = []*board{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(mux.Vars(r)["board"])
	if b == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type boardInput struct {
	Title   string `json:"title"`
	Columns []struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	} `json:"columns"`
}

func (s *Server) createBoard(w http.ResponseWriter, r *http.Request) {
	var in boardInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeError(w, http.StatusBadRequest, "Board title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &board{ID: s.nextID("b"), Title: in.Title, Columns: []*column{}}
	for _, c := range in.Columns {
		b.Columns = append(b.Columns, &column{ID: s.nextID("c"), Title: c.Title, tasks: []task{}})
	}
	s.boards = append(s.boards, b)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) updateBoard(w http.ResponseWriter, r *http.Request) {
	var in boardInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeError(w, http.StatusBadRequest, "Board title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(mux.Vars(r)["board"])
	if b == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}

	next := make([]*column, 0, len(in.Columns))
	for _, ci := range in.Columns {
		if ci.ID == "" {
			next = append(next, &column{ID: s.nextID("c"), Title: ci.Title, tasks: []task{}})
			continue
		}
		c := s.column(b.ID, ci.ID)
		if c == nil {
			writeError(w, http.StatusBadRequest, "Unknown column "+ci.ID)
			return
		}
		c.Title = ci.Title
		next = append(next, c)
	}
	b.Title = in.Title
	b.Columns = next
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBoard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := mux.Vars(r)["board"]
	for i, b := range s.boards {
		if b.ID == id {
			s.boards = append(s.boards[:i], s.boards[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Board not found")
}

func (s *Server) listColumns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(mux.Vars(r)["board"])
	if b == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, b.Columns)
}

func (s *Server) renameColumn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeError(w, http.StatusBadRequest, "Column title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	c.Title = in.Title
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteColumn(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	b := s.board(vars["board"])
	if b == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	for i, c := range b.Columns {
		if c.ID == vars["column"] {
			b.Columns = append(b.Columns[:i], b.Columns[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Column not found")
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	writeJSON(w, http.StatusOK, c.tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var in task
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	in.ID = s.nextID("t")
	if in.Status == "" {
		in.Status = "todo"
	}
	if in.Priority == "" {
		in.Priority = "low"
	}
	if in.Deadline != "" && len(in.Deadline) == len(time.DateOnly) {
		in.Deadline += "T00:00:00Z"
	}
	subs := make([]subTask, 0, len(in.SubTasks))
	for _, st := range in.SubTasks {
		if st.Title == "" {
			continue
		}
		subs = append(subs, subTask{ID: s.nextID("s"), Title: st.Title, Done: st.Done})
	}
	in.SubTasks = subs
	c.tasks = append(c.tasks, in)
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	i := taskIndex(c, vars["task"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	t := c.tasks[i]

	for key, raw := range patch {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(raw, &t.Title)
		case "description":
			err = json.Unmarshal(raw, &t.Description)
		case "status":
			err = json.Unmarshal(raw, &t.Status)
		case "piority":
			err = json.Unmarshal(raw, &t.Priority)
		case "deadline":
			var d *string
			err = json.Unmarshal(raw, &d)
			t.Deadline = ""
			if d != nil && *d != "" {
				t.Deadline = *d + "T00:00:00Z"
			}
		case "subTasks":
			var subs []subTask
			err = json.Unmarshal(raw, &subs)
			for j := range subs {
				if subs[j].ID == "" {
					subs[j].ID = s.nextID("s")
				}
			}
			t.SubTasks = subs
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+key)
			return
		}
	}

	if raw, ok := patch["column_id"]; ok {
		var to string
		if err := json.Unmarshal(raw, &to); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid column_id")
			return
		}
		target := s.column(vars["board"], to)
		if target == nil {
			writeError(w, http.StatusNotFound, "Column not found")
			return
		}
		if target != c {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			target.tasks = append(target.tasks, t)
			writeJSON(w, http.StatusOK, t)
			return
		}
	}

	c.tasks[i] = t
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	i := taskIndex(c, vars["task"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleSubTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	i := taskIndex(c, vars["task"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	t := &c.tasks[i]
	for j := range t.SubTasks {
		if t.SubTasks[j].ID == vars["subtask"] {
			t.SubTasks[j].Done = !t.SubTasks[j].Done
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Subtask not found")
}

func (s *Server) reorderTasks(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TaskIDs []string `json:"taskIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	c := s.column(vars["board"], vars["column"])
	if c == nil {
		writeError(w, http.StatusNotFound, "Column not found")
		return
	}
	if len(in.TaskIDs) != len(c.tasks) {
		writeError(w, http.StatusBadRequest, "Task order does not match column")
		return
	}
	next := make([]task, 0, len(c.tasks))
	for _, id := range in.TaskIDs {
		i := taskIndex(c, id)
		if i < 0 {
			writeError(w, http.StatusBadRequest, "Unknown task "+id)
			return
		}
		next = append(next, c.tasks[i])
	}
	c.tasks = next
	w.WriteHeader(http.StatusNoContent)
}
