package session

import (
	"iter"
	"sync/atomic"
	"time"

	"caresync/pkg"
)

// History texts.
const (
	HistoryLoadingText = "Loading query history..."
	HistoryEmptyText   = "No previous queries found."
	HistoryErrorText   = "Error loading queries. Please try again later."
)

// HistoryState tells the renderer which of the three history layouts to use.
type HistoryState int

const (
	HistoryLoaded HistoryState = iota
	HistoryEmpty
	HistoryError
)

// HistoryItem is one rendered entry.
type HistoryItem struct {
	Text        string
	Status      string
	Response    string
	HasResponse bool
	AskedOn     string
	Resolved    bool
}

// History is a snapshot of a patient's query history.  Items are rendered
// lazily and only once: a second iteration yields nothing.
type History struct {
	State   HistoryState
	Message string

	records  []pkg.HistoryRecord
	loc      *time.Location
	consumed atomic.Bool
}

// Resolved reports whether a status is shown as resolved.
func Resolved(status string) bool {
	return status == string(pkg.StatusVerified) || status == string(pkg.StatusCompleted)
}

// NewHistory builds the snapshot for a fetch result.  Any error yields the
// error layout; an empty result yields the explicit empty layout.
func NewHistory(records []pkg.HistoryRecord, err error, loc *time.Location) *History {
	if loc == nil {
		loc = time.Local
	}
	switch {
	case err != nil:
		return &History{State: HistoryError, Message: HistoryErrorText, loc: loc}
	case len(records) == 0:
		return &History{State: HistoryEmpty, Message: HistoryEmptyText, loc: loc}
	default:
		return &History{State: HistoryLoaded, records: records, loc: loc}
	}
}

// Len is the number of records in the snapshot.
func (h *History) Len() int {
	return len(h.records)
}

// Items renders the records one at a time.
func (h *History) Items() iter.Seq[HistoryItem] {
	return func(yield func(HistoryItem) bool) {
		if !h.consumed.CompareAndSwap(false, true) {
			return
		}
		for _, r := range h.records {
			if !yield(h.render(r)) {
				return
			}
		}
	}
}

func (h *History) render(r pkg.HistoryRecord) HistoryItem {
	it := HistoryItem{
		Text:     r.QueryText,
		Status:   r.Status,
		AskedOn:  FormatTime(r.CreatedAt, h.loc),
		Resolved: Resolved(r.Status),
	}
	if r.Response != nil && *r.Response != "" {
		it.Response = *r.Response
		it.HasResponse = true
	}
	return it
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// FormatTime renders a server timestamp for display.  Timestamps without a
// zone are taken as UTC; unparseable values are shown verbatim.
func FormatTime(raw string, loc *time.Location) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc).Format("Jan 2, 2006, 3:04:05 PM")
		}
	}
	return raw
}
