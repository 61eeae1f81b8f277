package session

import (
	"errors"
	"testing"

	"caresync/pkg"
)

func TestValidate(t *testing.T) {
	if _, err := Validate("  \t"); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v", err)
	}
	got, err := Validate("  headache  ")
	if err != nil || got != "headache" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestResolve(t *testing.T) {
	view, eff := Resolve(pkg.AIQueryResponse{}, errors.New("dial"))
	if view.Phase != Failed || view.Kind != KindTransport || eff != (Effects{}) {
		t.Fatalf("transport: %+v %+v", view, eff)
	}

	view, eff = Resolve(pkg.AIQueryResponse{Success: false, Message: "nope"}, nil)
	if view.DisplayText != "Error: nope" || view.Kind != KindApplication || eff != (Effects{}) {
		t.Fatalf("application: %+v %+v", view, eff)
	}

	view, eff = Resolve(pkg.AIQueryResponse{Success: true, Response: "hi", ChatID: "c9"}, nil)
	if view.Phase != Displayed || view.DisplayText != "hi" || view.Kind != KindNone {
		t.Fatalf("success view: %+v", view)
	}
	if eff.SaveChatID != "c9" || !eff.RefreshHistory {
		t.Fatalf("success effects: %+v", eff)
	}

	if v := InProgress(); v.Phase != Submitting || v.DisplayText != InProgressText {
		t.Fatalf("in progress: %+v", v)
	}
}
