package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"caresync/internal/clinician"
)

type queueView struct {
	clinician.Panel
	OOB bool
}

type detailView struct {
	Selected *clinician.Item
	Feedback clinician.Feedback
}

func (s *Server) handleClinician(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "clinician.html", queueView{Panel: s.Reviewer.Load(r.Context())})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	p := s.Reviewer.Select(s.Reviewer.Load(r.Context()), id)
	s.render(w, r, "detail", detailView{Selected: p.Selected})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.Reviewer.Verify)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.Reviewer.Edit)
}

// review renders the feedback line and, after a change, the refreshed
// queue out of band.
func (s *Server) review(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64, response string) clinician.Feedback) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	fb := action(r.Context(), id, r.PostFormValue("response"))
	s.render(w, r, "feedback", fb)
	if fb.OK {
		s.render(w, r, "queue", queueView{Panel: s.Reviewer.Load(r.Context()), OOB: true})
	}
}

func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid query id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
