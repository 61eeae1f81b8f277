package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"caresync/internal/logger"
	"caresync/pkg"
)

const (
	heartbeatInterval = 25 * time.Second
	wsWriteTimeout    = 10 * time.Second
)

// handleQueryStream streams one patient's query_update events using SSE.
func (s *Server) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(r.URL.Query().Get("patientId"))
	if patientID == "" {
		respondError(w, http.StatusBadRequest, "Patient ID required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if s.Broker == nil {
		respondError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	events := s.Broker.Subscribe(ctx)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.PatientID != patientID {
				continue
			}
			if err := writeSSE(w, "query_update", ev); err != nil {
				logger.Ctx(ctx).Debug().Err(err).Msg("sse write")
				return
			}
			flusher.Flush()
		case <-ticker.C:
			// comment line keeps proxies from closing an idle stream
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// handleQueryWS pushes every query event to a clinician over a websocket.
// Optional ?status= restricts the feed to events in that status.
func (s *Server) handleQueryWS(w http.ResponseWriter, r *http.Request) {
	if s.Broker == nil {
		respondError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	status := pkg.QueryStatus(r.URL.Query().Get("status"))
	log := logger.Ctx(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	// The request context is not cancelled on hijacked connections, so the
	// read loop owns the subscription lifetime.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := s.Broker.Subscribe(ctx)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if status != "" && ev.Status != status {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("websocket write")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
