package server

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/ldi/todolist/embed/web"
	"github.com/ldi/todolist/internal/todo"
	"github.com/ldi/todolist/pkg/models"
	"github.com/sirupsen/logrus"
)

// Server exposes one task list over HTML forms and a JSON API. Requests are
// handled one at a time.
type Server struct {
	mu     sync.Mutex
	ctrl   *todo.Controller
	flash  *flash
	log    logrus.FieldLogger
	page   *template.Template
	router *mux.Router
	server *http.Server
}

// flash collects notices until the next page render, along with the form
// input of a rejected add. Confirmation is armed by the handler that already
// holds the user's answer.
type flash struct {
	confirm bool
	notices []string
	text    string
	dueDate string
}

func (f *flash) Alert(msg string) {
	f.notices = append(f.notices, msg)
}

func (f *flash) Confirm(string) bool {
	return f.confirm
}

func (f *flash) take() []string {
	n := f.notices
	f.notices = nil
	return n
}

// takeInput returns the kept form input and forgets it.
func (f *flash) takeInput() (text, dueDate string) {
	text, dueDate = f.text, f.dueDate
	f.text, f.dueDate = "", ""
	return text, dueDate
}

func NewServer(ctx context.Context, store todo.Store, log logrus.FieldLogger) *Server {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	f := &flash{}
	s := &Server{
		flash: f,
		log:   log,
		page:  template.Must(template.ParseFS(web.Assets, "index.html")),
	}
	s.ctrl = todo.NewController(store, todo.WithPrompter(f), todo.WithLogger(log))
	s.ctrl.Load(ctx)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	// HTML page
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/tasks/delete-all", s.handleDeleteAll).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}/toggle", s.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}/delete", s.handleDelete).Methods(http.MethodPost)
	r.HandleFunc("/filter", s.handleFilter).Methods(http.MethodPost)

	// API endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tasks", s.apiList).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.apiAdd).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.apiDeleteAll).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id:[0-9]+}/toggle", s.apiToggle).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.apiDelete).Methods(http.MethodDelete)
	api.HandleFunc("/filter", s.apiFilter).Methods(http.MethodPost)

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	return r
}

// Handler returns the router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.WithField("addr", addr).Info("web server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type filterOption struct {
	Value    models.FilterMode
	Title    string
	Selected bool
}

type pageData struct {
	View           todo.View
	Filters        []filterOption
	Notices        []string
	ConfirmMessage string
	Text           string
	DueDate        string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view := s.ctrl.View()
	data := pageData{
		View:           view,
		Notices:        s.flash.take(),
		ConfirmMessage: todo.ConfirmDeleteAll,
	}
	data.Text, data.DueDate = s.flash.takeInput()
	s.mu.Unlock()

	for _, m := range models.FilterModes {
		data.Filters = append(data.Filters, filterOption{Value: m, Title: m.Title(), Selected: m == view.Filter})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.log.WithError(err).Error("render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	text, dueDate := r.PostFormValue("text"), r.PostFormValue("dueDate")
	s.mu.Lock()
	if _, err := s.ctrl.AddTask(r.Context(), text, dueDate); err != nil {
		s.flash.text, s.flash.dueDate = text, dueDate
	}
	s.mu.Unlock()
	back(w, r)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if ok {
		s.mu.Lock()
		if !s.ctrl.ToggleComplete(r.Context(), id) {
			s.log.WithField("id", id).Debug("toggle of unknown task")
		}
		s.mu.Unlock()
	}
	back(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if ok {
		s.mu.Lock()
		if !s.ctrl.DeleteOne(r.Context(), id) {
			s.log.WithField("id", id).Debug("delete of unknown task")
		}
		s.mu.Unlock()
	}
	back(w, r)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.deleteAll(r.Context(), r.PostFormValue("confirm") == "yes")
	s.mu.Unlock()
	back(w, r)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	mode, err := models.ParseFilterMode(r.PostFormValue("filter"))
	s.mu.Lock()
	if err != nil {
		s.flash.Alert(err.Error())
	} else {
		s.ctrl.SetFilter(mode)
	}
	s.mu.Unlock()
	back(w, r)
}

type taskList struct {
	Filter models.FilterMode `json:"filter"`
	Empty  bool              `json:"empty"`
	Tasks  []models.Task     `json:"tasks"`
}

type addRequest struct {
	Text    string `json:"text"`
	DueDate string `json:"dueDate"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

func (s *Server) apiList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view := s.ctrl.View()
	all := s.ctrl.Tasks()
	s.mu.Unlock()

	if raw, ok := r.URL.Query()["filter"]; ok && len(raw) > 0 {
		mode, err := models.ParseFilterMode(raw[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		view.Filter = mode
		view.Tasks = todo.Filter(all, mode)
	}
	writeJSON(w, http.StatusOK, listOf(view))
}

func (s *Server) apiAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	task, err := s.ctrl.AddTask(r.Context(), req.Text, req.DueDate)
	s.flash.take()
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) apiToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	s.mu.Lock()
	found := s.ctrl.ToggleComplete(r.Context(), id)
	task, _ := s.ctrl.Get(id)
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) apiDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	s.mu.Lock()
	found := s.ctrl.DeleteOne(r.Context(), id)
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiDeleteAll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	done := s.deleteAll(r.Context(), r.URL.Query().Get("confirm") == "yes")
	s.mu.Unlock()

	if !done {
		writeError(w, http.StatusConflict, "confirm=yes is required to delete all tasks")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := models.ParseFilterMode(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.ctrl.SetFilter(mode)
	view := s.ctrl.View()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, listOf(view))
}

// deleteAll must be called with s.mu held.
func (s *Server) deleteAll(ctx context.Context, confirmed bool) bool {
	s.flash.confirm = confirmed
	defer func() { s.flash.confirm = false }()
	return s.ctrl.DeleteAll(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func listOf(v todo.View) taskList {
	tasks := v.Tasks
	if tasks == nil {
		tasks = []models.Task{}
	}
	return taskList{Filter: v.Filter, Empty: v.Empty, Tasks: tasks}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
