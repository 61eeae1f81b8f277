package intake

import (
	"net/url"
	"slices"
	"testing"
)

func validForm() url.Values {
	return url.Values{
		"full_name":      {" Ada Lovelace "},
		"dob":            {"1990-12-10"},
		"gender":         {"Female"},
		"height":         {"170"},
		"diabetes":       {"on"},
		"smoking_status": {"Never"},
		"alcohol_use":    {"None"},
	}
}

func TestNextRequiresFields(t *testing.T) {
	w := New()
	res := w.Next(1, url.Values{"full_name": {"   "}, "gender": {"Male"}})
	if res.Step != 1 || res.Done {
		t.Fatalf("result = %+v", res)
	}
	if res.Message != MissingFieldsMessage {
		t.Fatalf("message = %q", res.Message)
	}
	if !slices.Equal(res.Invalid, []string{"full_name", "dob"}) {
		t.Fatalf("invalid = %v", res.Invalid)
	}

	res = w.Next(1, validForm())
	if res.Step != 2 || len(res.Invalid) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestNextRejectsMalformedValues(t *testing.T) {
	v := validForm()
	v.Set("dob", "10/12/1990")
	v.Set("weight", "heavy")
	res := New().Next(1, v)
	if !slices.Equal(res.Invalid, []string{"dob", "weight"}) {
		t.Fatalf("invalid = %v", res.Invalid)
	}
}

func TestOtherConditionToggle(t *testing.T) {
	w := New()
	v := validForm()
	v.Set("other_conditions", "gout")

	if res := w.Next(2, v); res.Step != 3 {
		t.Fatalf("unticked toggle should not require the field: %+v", res)
	}
	in, err := w.Build(v)
	if err != nil {
		t.Fatal(err)
	}
	if in.OtherConditions != nil {
		t.Fatalf("value behind unticked toggle must be discarded, got %q", *in.OtherConditions)
	}

	v.Set(OtherConditionToggle, "on")
	v.Set("other_conditions", "  ")
	if res := w.Next(2, v); res.Step != 2 || !slices.Equal(res.Invalid, []string{"other_conditions"}) {
		t.Fatalf("ticked toggle should require the field: %+v", res)
	}
	v.Set("other_conditions", "gout")
	in, err = w.Build(v)
	if err != nil {
		t.Fatal(err)
	}
	if in.OtherConditions == nil || *in.OtherConditions != "gout" {
		t.Fatalf("other conditions = %v", in.OtherConditions)
	}
}

func TestNavigation(t *testing.T) {
	w := New()
	if w.Total() != 6 {
		t.Fatalf("total = %d", w.Total())
	}
	if w.Prev(1) != 1 || w.Prev(4) != 3 {
		t.Fatal("prev out of range")
	}
	for step := 1; step <= 5; step++ {
		if w.ForwardLabel(step) != NextLabel {
			t.Fatalf("step %d label = %q", step, w.ForwardLabel(step))
		}
	}
	if w.ForwardLabel(6) != SubmitLabel {
		t.Fatalf("last label = %q", w.ForwardLabel(6))
	}
	if res := w.Next(6, validForm()); !res.Done {
		t.Fatalf("last step should finish: %+v", res)
	}
}

func TestBuild(t *testing.T) {
	in, err := New().Build(validForm())
	if err != nil {
		t.Fatal(err)
	}
	if in.FullName != "Ada Lovelace" || in.DOB != "1990-12-10" || !in.Diabetes || in.Hypertension {
		t.Fatalf("input = %+v", in)
	}
	if in.Height == nil || *in.Height != 170 || in.Weight != nil {
		t.Fatalf("height/weight = %v/%v", in.Height, in.Weight)
	}
	if in.SmokingStatus == nil || *in.SmokingStatus != "Never" {
		t.Fatalf("smoking = %v", in.SmokingStatus)
	}

	if _, err := New().Build(url.Values{}); err == nil {
		t.Fatal("expected error for empty form")
	}
}
