package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"caresync/internal/logger"
	"caresync/pkg"
)

// API is the backend as seen by the controller.  A returned error means the
// request did not complete; a completed request with success=false is not an
// error.
type API interface {
	SubmitQuery(ctx context.Context, req pkg.AIQueryRequest) (pkg.AIQueryResponse, error)
	ListQueries(ctx context.Context, patientID string) ([]pkg.HistoryRecord, error)
}

// Outcome is the result of one Submit.
type Outcome struct {
	View  View
	State State
	// History is set only when the submission succeeded and was current.
	History *History
	// Stale marks an outcome overtaken by a later submission on the same key.
	Stale bool
}

// Controller runs query submissions for patient sessions.
type Controller struct {
	api      API
	store    Store
	log      zerolog.Logger
	location *time.Location

	mu       sync.Mutex
	inflight map[string]*submissions
}

// submissions tracks the requests in flight for one session key.  The entry
// is dropped when the last of them finishes.
type submissions struct {
	seq     uint64
	running int
}

type Option func(*Controller)

// WithLocation sets the zone history timestamps are shown in.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.location = loc }
}

// WithLogger overrides the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func NewController(api API, store Store, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		store:    store,
		log:      logger.L(),
		location: time.Local,
		inflight: make(map[string]*submissions),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load reads the session state.  A store failure is logged and yields an
// empty state.
func (c *Controller) Load(ctx context.Context, key string) State {
	st, err := c.store.Load(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Msg("session load failed")
		return State{}
	}
	return st
}

// Submit validates text, sends it with the session's identifiers and
// resolves the answer.  It never returns an error: every failure becomes a
// View.
func (c *Controller) Submit(ctx context.Context, key string, st State, text string) Outcome {
	query, err := Validate(text)
	if err != nil {
		return Outcome{View: Invalid(), State: st}
	}

	token := c.begin(key)
	defer c.finish(key)
	log := c.log.With().
		Str(logger.FieldPatientID, st.PatientID).
		Str(logger.FieldChatID, st.ChatID).
		Logger()

	resp, err := c.api.SubmitQuery(ctx, pkg.AIQueryRequest{
		QueryText: query,
		PatientID: optional(st.PatientID),
		ChatID:    optional(st.ChatID),
	})
	if err != nil {
		log.Error().Err(err).Msg("submit query failed")
	}
	view, effects := Resolve(resp, err)

	stale := Outcome{View: view, State: st, Stale: true}
	if !c.current(key, token) {
		log.Debug().Msg("dropping outcome of superseded submission")
		return stale
	}

	out := Outcome{View: view, State: st}
	if effects.SaveChatID != "" && effects.SaveChatID != st.ChatID {
		// another replica may have rebound the session meanwhile
		latest, err := c.store.Load(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("session reload failed")
			latest = st
		}
		if latest.PatientID != st.PatientID {
			log.Debug().Msg("dropping outcome for a session bound to another patient")
			return stale
		}
		next := latest
		next.ChatID = effects.SaveChatID
		if err := c.store.Save(ctx, key, next); err != nil {
			log.Warn().Err(err).Msg("session save failed")
		}
		out.State = next
	}
	if effects.RefreshHistory {
		out.History = c.RefreshHistory(ctx, st.PatientID)
	}
	return out
}

// RefreshHistory fetches the patient's query history.
func (c *Controller) RefreshHistory(ctx context.Context, patientID string) *History {
	records, err := c.api.ListQueries(ctx, patientID)
	if err != nil {
		c.log.Error().Err(err).Str(logger.FieldPatientID, patientID).Msg("list queries failed")
	}
	return NewHistory(records, err, c.location)
}

// ClearChat ends the chat session; the next submission starts a new chat.
// The patient id is kept and any submission in flight is superseded.
func (c *Controller) ClearChat(ctx context.Context, key string) (State, error) {
	st := c.Load(ctx, key)
	st.ChatID = ""
	c.supersede(key)
	if st.PatientID == "" {
		return st, c.store.Clear(ctx, key)
	}
	return st, c.store.Save(ctx, key, st)
}

// Bind attaches the session to a patient with a fresh chat.  Submissions
// still in flight for the previous binding are superseded.
func (c *Controller) Bind(ctx context.Context, key, patientID string) (State, error) {
	st := State{PatientID: patientID}
	c.supersede(key)
	return st, c.store.Save(ctx, key, st)
}

func (c *Controller) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := c.inflight[key]
	if sub == nil {
		sub = &submissions{}
		c.inflight[key] = sub
	}
	sub.seq++
	sub.running++
	return sub.seq
}

func (c *Controller) finish(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := c.inflight[key]
	if sub == nil {
		return
	}
	if sub.running--; sub.running <= 0 {
		delete(c.inflight, key)
	}
}

func (c *Controller) current(key string, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := c.inflight[key]
	return sub != nil && sub.seq == token
}

// supersede invalidates every submission in flight for key.  With nothing
// in flight there is nothing to track.
func (c *Controller) supersede(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub := c.inflight[key]; sub != nil {
		sub.seq++
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
