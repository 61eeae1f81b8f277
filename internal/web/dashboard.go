package web

import (
	"net/http"
	"slices"
	"strings"

	"caresync/internal/session"
)

type dashboardView struct {
	PatientID      string
	InProgressText string
	LoadingText    string
	Answer         session.View
}

type historyView struct {
	Message string
	Items   []session.HistoryItem
	OOB     bool
}

func newHistoryView(h *session.History, oob bool) historyView {
	v := historyView{Message: h.Message, OOB: oob}
	if h.State == session.HistoryLoaded {
		v.Items = slices.Collect(h.Items())
	}
	return v
}

// handleLogin is the hand-off from the patient login flow: it binds the
// browsing session to a patient and starts a fresh chat.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(r.URL.Query().Get("patientId"))
	if patientID == "" {
		http.Error(w, "patientId is required", http.StatusBadRequest)
		return
	}
	key := s.sessionKey(w, r)
	if _, err := s.Sessions.Bind(r.Context(), key, patientID); err != nil {
		http.Error(w, "could not start session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := s.Sessions.Load(r.Context(), s.sessionKey(w, r))
	s.render(w, r, "dashboard.html", dashboardView{
		PatientID:      st.PatientID,
		InProgressText: session.InProgressText,
		LoadingText:    session.HistoryLoadingText,
	})
}

// handleQuery submits the patient's question and swaps in the answer.  A
// successful answer also replaces the history list out of band.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := s.sessionKey(w, r)
	st := s.Sessions.Load(ctx, key)

	out := s.Sessions.Submit(ctx, key, st, r.PostFormValue("query"))
	if out.Stale {
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.render(w, r, "answer", out.View)
	if out.History != nil {
		s.render(w, r, "history", newHistoryView(out.History, true))
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	st := s.Sessions.Load(r.Context(), s.sessionKey(w, r))
	h := s.Sessions.RefreshHistory(r.Context(), st.PatientID)
	s.render(w, r, "history", newHistoryView(h, false))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Sessions.ClearChat(r.Context(), s.sessionKey(w, r)); err != nil {
		http.Error(w, "could not clear conversation", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "answer", session.View{})
}
