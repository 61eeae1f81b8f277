// Package clinician builds the clinician review panel: pending and verified
// query lists, the selected query, and verify/edit actions.
package clinician

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"caresync/internal/logger"
	"caresync/pkg"
)

const (
	VerifiedMessage      = "Response verified successfully!"
	EditedMessage        = "Response edited successfully!"
	EmptyVerifyMessage   = "Please enter a response before verifying."
	EmptyEditMessage     = "Please enter a response before editing."
	ReviewFailureMessage = "Error connecting to the server. Please try again."
	ListFailureMessage   = "Error loading queries. Please try again later."
)

// API is the part of the backend the panel uses.
type API interface {
	ListByStatus(ctx context.Context, status pkg.QueryStatus) ([]pkg.Query, error)
	Verify(ctx context.Context, queryID int64, response string) error
	Edit(ctx context.Context, queryID int64, response string) error
}

// Item is one query in a list.
type Item struct {
	ID       int64
	Text     string
	Response string
	Status   pkg.QueryStatus
}

// Panel is the review screen.  A list whose fetch failed carries its error
// text and no items.
type Panel struct {
	Pending       []Item
	Verified      []Item
	PendingError  string
	VerifiedError string
	Selected      *Item
}

// Feedback is the outcome of a verify or edit.
type Feedback struct {
	OK      bool
	Message string
}

type Reviewer struct {
	api API
	log zerolog.Logger
}

func NewReviewer(api API) *Reviewer {
	return &Reviewer{api: api, log: logger.L()}
}

// Load fetches both lists concurrently.  One failing list does not hide the
// other.
func (r *Reviewer) Load(ctx context.Context) Panel {
	var (
		p                    Panel
		pending, verified    []pkg.Query
		pendErr, verifiedErr error
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		pending, pendErr = r.api.ListByStatus(ctx, pkg.StatusPending)
	})
	wg.Go(func() {
		verified, verifiedErr = r.api.ListByStatus(ctx, pkg.StatusVerified)
	})
	wg.Wait()

	if pendErr != nil {
		r.log.Error().Err(pendErr).Msg("load pending queries")
		p.PendingError = ListFailureMessage
	} else {
		p.Pending = items(pending)
	}
	if verifiedErr != nil {
		r.log.Error().Err(verifiedErr).Msg("load verified queries")
		p.VerifiedError = ListFailureMessage
	} else {
		p.Verified = items(verified)
	}
	return p
}

// Select marks the query with id as selected.  An unknown id clears the
// selection.
func (r *Reviewer) Select(p Panel, id int64) Panel {
	p.Selected = nil
	for _, list := range [][]Item{p.Pending, p.Verified} {
		for i := range list {
			if list[i].ID == id {
				it := list[i]
				p.Selected = &it
				return p
			}
		}
	}
	return p
}

// Verify submits the clinician's response and marks the query verified.
func (r *Reviewer) Verify(ctx context.Context, id int64, response string) Feedback {
	return r.review(ctx, id, response, EmptyVerifyMessage, VerifiedMessage, r.api.Verify)
}

// Edit replaces the query's response.
func (r *Reviewer) Edit(ctx context.Context, id int64, response string) Feedback {
	return r.review(ctx, id, response, EmptyEditMessage, EditedMessage, r.api.Edit)
}

func (r *Reviewer) review(
	ctx context.Context, id int64, response, emptyMsg, okMsg string,
	call func(context.Context, int64, string) error,
) Feedback {
	text := strings.TrimSpace(response)
	if text == "" {
		return Feedback{Message: emptyMsg}
	}
	if err := call(ctx, id, text); err != nil {
		r.log.Error().Err(err).Int64(logger.FieldQueryID, id).Msg("review query")
		return Feedback{Message: ReviewFailureMessage}
	}
	return Feedback{OK: true, Message: okMsg}
}

func items(qs []pkg.Query) []Item {
	out := make([]Item, 0, len(qs))
	for _, q := range qs {
		it := Item{ID: q.ID, Text: q.Text, Status: q.Status}
		if q.Response != nil {
			it.Response = *q.Response
		}
		out = append(out, it)
	}
	return out
}
