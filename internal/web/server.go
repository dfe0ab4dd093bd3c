// Package web serves a read-only view of the batch ledger.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/firmgen/internal/db"
)

// Ledger is the part of the batch store the views read.
type Ledger interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID string) (db.Run, error)
	ListTasks(ctx context.Context, runID string) ([]db.Task, error)
}

// Server provides the web UI handlers.
type Server struct {
	ledger Ledger
	tmpl   *template.Template
	limit  int
}

//go:embed templates/*.html
var templatesFS embed.FS

// DefaultRunLimit caps the runs listed on the index page.
const DefaultRunLimit = 50

// NewServer creates a web server over the ledger.
func NewServer(ledger Ledger) (*Server, error) {
	tmpl, err := template.New("web").Funcs(template.FuncMap{
		"stamp": stamp,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{ledger: ledger, tmpl: tmpl, limit: DefaultRunLimit}, nil
}

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.ledger.ListRuns(r.Context(), s.limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.render(w, "index.html", runs)
}

type runPage struct {
	Run   db.Run
	Tasks []db.Task
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.ledger.GetRun(r.Context(), id)
	if errors.Is(err, db.ErrRunNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	tasks, err := s.ledger.ListTasks(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.render(w, "run.html", runPage{Run: run, Tasks: tasks})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("web: render failed")
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("web: ledger query failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
