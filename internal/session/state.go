// Package session implements the patient query session: validating and
// submitting a query, turning the outcome into display state and keeping
// the chat session identifier.  Transitions are pure functions; Controller
// adds the I/O around them.
package session

import (
	"errors"
	"strings"

	"caresync/pkg"
)

// User-facing texts.
const (
	ValidationMessage   = "Please enter a valid query."
	InProgressText      = "Generating response..."
	ConnectivityMessage = "Error connecting to the server. Please try again."
	FailurePrefix       = "Error: "
)

// ErrEmptyQuery is the validation error for blank query text.
var ErrEmptyQuery = errors.New("query text is empty")

// Phase is the position of one submission in Idle → Submitting → {Displayed, Failed}.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Displayed
	Failed
)

func (p Phase) String() string {
	switch p {
	case Submitting:
		return "submitting"
	case Displayed:
		return "displayed"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Kind classifies a failure.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindApplication
	KindTransport
)

// View is what the presentation layer shows for the answer area.
type View struct {
	Phase       Phase
	DisplayText string
	Kind        Kind
	// Alert is a message to surface outside the answer area (validation only).
	Alert string
}

// Effects are the side effects a resolved submission asks for.
type Effects struct {
	SaveChatID     string
	RefreshHistory bool
}

// Validate trims text and rejects empty input.
func Validate(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ErrEmptyQuery
	}
	return t, nil
}

// Invalid is the view for a query that failed validation; the answer area
// is cleared.
func Invalid() View {
	return View{Phase: Idle, Kind: KindValidation, Alert: ValidationMessage}
}

// InProgress is the view while the request is in flight.
func InProgress() View {
	return View{Phase: Submitting, DisplayText: InProgressText}
}

// Resolve maps the outcome of the submit call onto a view and effects.
// err is a transport-level failure; resp is ignored when err is set.
func Resolve(resp pkg.AIQueryResponse, err error) (View, Effects) {
	if err != nil {
		return View{Phase: Failed, Kind: KindTransport, DisplayText: ConnectivityMessage}, Effects{}
	}
	if !resp.Success {
		return View{Phase: Failed, Kind: KindApplication, DisplayText: FailurePrefix + resp.Message}, Effects{}
	}
	return View{Phase: Displayed, DisplayText: resp.Response}, Effects{
		SaveChatID:     resp.ChatID,
		RefreshHistory: true,
	}
}
