// Package web serves the server-rendered CareSync pages: the patient
// dashboard, the clinician review panel and the medical history form.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"caresync/internal/clinician"
	"caresync/internal/intake"
	"caresync/internal/logger"
	"caresync/internal/session"
	"caresync/pkg"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PatientRegistry stores a completed intake form.
type PatientRegistry interface {
	CreatePatient(ctx context.Context, in pkg.PatientInput) (int64, error)
}

type Options struct {
	CookieName string
	CookieTTL  time.Duration
}

type Server struct {
	Sessions *session.Controller
	Reviewer *clinician.Reviewer
	Wizard   *intake.Wizard
	Patients PatientRegistry

	templates *template.Template
	router    chi.Router
	opts      Options
}

func NewServer(
	sessions *session.Controller, reviewer *clinician.Reviewer,
	wizard *intake.Wizard, patients PatientRegistry, opts Options,
) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = "caresync_session"
	}
	s := &Server{
		Sessions: sessions,
		Reviewer: reviewer,
		Wizard:   wizard,
		Patients: patients,
		opts:     opts,
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"fieldView": s.fieldView,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.templates = tmpl

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(logger.L()))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/login", s.handleLogin)

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.handleDashboard)
		r.Post("/query", s.handleQuery)
		r.Get("/history", s.handleHistory)
		r.Post("/clear", s.handleClear)
	})
	r.Route("/clinician", func(r chi.Router) {
		r.Get("/", s.handleClinician)
		r.Get("/queries/{id}", s.handleSelect)
		r.Post("/queries/{id}/verify", s.handleVerify)
		r.Post("/queries/{id}/edit", s.handleEdit)
	})
	r.Get("/intake", s.handleIntakePage)
	r.Post("/intake", s.handleIntakeStep)

	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// sessionKey returns the browsing session id, issuing a cookie on first use.
func (s *Server) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.opts.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	key := uuid.NewString()
	c := &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.opts.CookieTTL > 0 {
		c.MaxAge = int(s.opts.CookieTTL.Seconds())
	}
	http.SetCookie(w, c)
	return key
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render failed")
	}
}
