package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"caresync/internal/db"
	"caresync/internal/logger"
	"caresync/pkg"
)

// handleAIQuery answers a patient query and stores it for clinician review.
// A new chat is opened when the request carries no chat_id.
func (s *Server) handleAIQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pkg.AIQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.QueryText) == "" {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	log := logger.Ctx(ctx).With().
		Str(logger.FieldPatientID, deref(req.PatientID)).
		Str(logger.FieldChatID, deref(req.ChatID)).
		Logger()

	var patientContext string
	if req.PatientID != nil {
		if id, err := strconv.ParseInt(*req.PatientID, 10, 64); err == nil {
			if p, err := s.Store.GetPatient(ctx, id); err == nil {
				patientContext = s.Answers.PatientContext(p)
			}
		}
	}

	var earlier []pkg.Query
	if chatID := deref(req.ChatID); chatID != "" {
		prior, err := s.Store.ListQueries(ctx, db.QueryFilter{ChatID: chatID, PatientID: deref(req.PatientID)})
		if err != nil {
			log.Warn().Err(err).Msg("load earlier turns")
		} else {
			earlier = prior
		}
	}

	answer, err := s.Answers.Answer(ctx, req.QueryText, patientContext, earlier)
	if err != nil {
		log.Warn().Err(err).Msg("answer generation degraded")
	}

	chatID := deref(req.ChatID)
	if chatID == "" {
		if chatID, err = s.Store.CreateChat(ctx, req.PatientID); err != nil {
			log.Error().Err(err).Msg("create chat")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	q := pkg.Query{
		ChatID:    chatID,
		PatientID: req.PatientID,
		Text:      req.QueryText,
		Response:  &answer,
		Status:    pkg.StatusPending,
	}
	if err := s.Store.CreateQuery(ctx, &q); err != nil {
		log.Error().Err(err).Msg("store query")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.publish(ctx, queryEvent(pkg.EventQueryCreated, q))

	respondJSON(w, http.StatusOK, pkg.AIQueryResponse{
		Success:  true,
		Response: answer,
		QueryID:  q.ID,
		ChatID:   chatID,
	})
}

// handleListQueries serves two shapes: the patient history shape when
// patientId is given, the full query shape for a status listing.  A request
// naming neither, or an empty patientId, is rejected so one patient's
// dashboard can never list another patient's queries.
func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	f := db.QueryFilter{
		PatientID: strings.TrimSpace(params.Get("patientId")),
		Status:    pkg.QueryStatus(params.Get("status")),
	}
	if f.PatientID == "" && (params.Has("patientId") || f.Status == "") {
		respondError(w, http.StatusBadRequest, "Patient ID required")
		return
	}
	queries, err := s.Store.ListQueries(r.Context(), f)
	if err != nil {
		respondStoreError(w, r, err, "queries")
		return
	}
	if f.PatientID != "" {
		respondJSON(w, http.StatusOK, historyRecords(queries))
		return
	}
	respondJSON(w, http.StatusOK, nonNil(queries))
}

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var q pkg.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil || strings.TrimSpace(q.Text) == "" {
		respondError(w, http.StatusBadRequest, "query_text is required")
		return
	}
	q.ID = 0
	q.CreatedAt = time.Time{}
	if q.ChatID == "" {
		id, err := s.Store.CreateChat(r.Context(), q.PatientID)
		if err != nil {
			respondStoreError(w, r, err, "chat")
			return
		}
		q.ChatID = id
	}
	if err := s.Store.CreateQuery(r.Context(), &q); err != nil {
		respondStoreError(w, r, err, "query")
		return
	}
	s.publish(r.Context(), queryEvent(pkg.EventQueryCreated, q))
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "Query created successfully",
		"query_id": q.ID,
		"chat_id":  q.ChatID,
	})
}

func (s *Server) handleGetQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := s.Store.GetQuery(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "query")
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// handleVerifyResponse marks a query Verified, optionally replacing the
// answer with the clinician's text.
func (s *Server) handleVerifyResponse(w http.ResponseWriter, r *http.Request) {
	verified := pkg.StatusVerified
	s.review(w, r, func(req pkg.ReviewRequest) (db.Review, bool) {
		if req.Response != nil && strings.TrimSpace(*req.Response) == "" {
			req.Response = nil
		}
		return db.Review{Status: &verified, Response: req.Response, ClinicianID: req.ClinicianID}, true
	})
}

// handleEditResponse replaces the answer text and leaves the status alone.
func (s *Server) handleEditResponse(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, func(req pkg.ReviewRequest) (db.Review, bool) {
		if req.Response == nil || strings.TrimSpace(*req.Response) == "" {
			return db.Review{}, false
		}
		return db.Review{Response: req.Response, ClinicianID: req.ClinicianID}, true
	})
}

func (s *Server) review(w http.ResponseWriter, r *http.Request, build func(pkg.ReviewRequest) (db.Review, bool)) {
	var req pkg.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QueryID == 0 {
		respondError(w, http.StatusBadRequest, "query_id is required")
		return
	}
	rv, ok := build(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "response is required")
		return
	}
	q, err := s.Store.ReviewQuery(r.Context(), req.QueryID, rv)
	if err != nil {
		respondStoreError(w, r, err, "query")
		return
	}
	s.publish(r.Context(), queryEvent(pkg.EventQueryReviewed, *q))
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "query": q})
}

// handleChatHistory returns the transcript of one chat as alternating
// user/assistant turns.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		respondError(w, http.StatusBadRequest, "chat_id is required")
		return
	}
	queries, err := s.Store.ListQueries(r.Context(), db.QueryFilter{ChatID: chatID})
	if err != nil {
		respondStoreError(w, r, err, "chat")
		return
	}
	turns := make([]pkg.ChatTurn, 0, 2*len(queries))
	for _, q := range queries {
		turns = append(turns, pkg.ChatTurn{Role: "user", Parts: []pkg.ChatPart{{Text: q.Text}}})
		if q.Response != nil {
			turns = append(turns, pkg.ChatTurn{Role: "assistant", Parts: []pkg.ChatPart{{Text: *q.Response}}})
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": turns})
}

func (s *Server) handleDBSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Store.Summary(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "summary")
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func historyRecords(queries []pkg.Query) []pkg.HistoryRecord {
	out := make([]pkg.HistoryRecord, 0, len(queries))
	for _, q := range queries {
		out = append(out, pkg.HistoryRecord{
			ID:        q.ID,
			QueryText: q.Text,
			Response:  q.Response,
			Status:    string(q.Status),
			CreatedAt: q.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func queryEvent(typ string, q pkg.Query) pkg.QueryEvent {
	return pkg.QueryEvent{
		Type:      typ,
		QueryID:   q.ID,
		ChatID:    q.ChatID,
		PatientID: deref(q.PatientID),
		Status:    q.Status,
		At:        time.Now().UTC(),
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
