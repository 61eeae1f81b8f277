package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"caresync/internal/core"
	"caresync/internal/db"
	"caresync/internal/logger"
	"caresync/pkg"
)

// Publisher announces query events.  db.Notifier publishes through Postgres,
// db.Broker publishes in process.
type Publisher interface {
	Publish(ctx context.Context, ev pkg.QueryEvent) error
}

// Server bundles together the dependencies required by the API handlers.
// It implements http.Handler so it can be passed to an http.Server.
type Server struct {
	Store    db.Store
	Answers  *core.AnswerService
	Events   Publisher
	Broker   *db.Broker
	upgrader websocket.Upgrader
	router   chi.Router
}

// Options configures NewServer.
type Options struct {
	AllowedOrigins []string
}

// NewServer wires routes to handlers.
func NewServer(store db.Store, answers *core.AnswerService, events Publisher, broker *db.Broker, opts Options) *Server {
	s := &Server{
		Store:   store,
		Answers: answers,
		Events:  events,
		Broker:  broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(logger.L()))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/ai_query", s.handleAIQuery)
		api.Get("/chat_history", s.handleChatHistory)

		api.Get("/queries", s.handleListQueries)
		api.Post("/queries", s.handleCreateQuery)
		api.Get("/queries/stream", s.handleQueryStream)
		api.Get("/queries/ws", s.handleQueryWS)
		api.Get("/queries/{id}", s.handleGetQuery)

		api.Post("/verify_response", s.handleVerifyResponse)
		api.Post("/edit_response", s.handleEditResponse)

		api.Post("/patients", s.handleCreatePatient)
		api.Get("/patients", s.handleListPatients)
		api.Get("/patients/{id}", s.handleGetPatient)
		api.Get("/patients/{id}/queries", s.handlePatientQueries)

		api.Post("/clinicians", s.handleCreateClinician)
		api.Get("/clinicians", s.handleListClinicians)
		api.Get("/clinicians/{id}", s.handleGetClinician)
		api.Get("/clinicians/{id}/queries", s.handleClinicianQueries)

		api.Get("/db-summary", s.handleDBSummary)
	})

	s.router = r
	return s
}

// ServeHTTP dispatches to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// publish never fails the request; a lost event only delays a refresh.
func (s *Server) publish(ctx context.Context, ev pkg.QueryEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("type", ev.Type).Int64(logger.FieldQueryID, ev.QueryID).Msg("publish event")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

// respondStoreError maps storage failures onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	logger.Ctx(r.Context()).Error().Err(err).Str("entity", what).Msg("store failure")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
