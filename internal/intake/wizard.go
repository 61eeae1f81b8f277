// Package intake drives the multi-step patient medical history form.
package intake

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"caresync/pkg"
)

const (
	MissingFieldsMessage = "Please fill out all required fields."
	NextLabel            = "Next"
	SubmitLabel          = "Submit"
)

// Result is the outcome of pressing the forward button.
type Result struct {
	Step    int
	Invalid []string
	Message string
	// Done is set when the last step validated and the form can be submitted.
	Done bool
}

type Wizard struct {
	steps []Step
}

func New() *Wizard {
	return &Wizard{steps: defaultSteps}
}

func (w *Wizard) Steps() []Step { return w.steps }

func (w *Wizard) Total() int { return len(w.steps) }

// Clamp keeps a step number inside the form.
func (w *Wizard) Clamp(step int) int {
	switch {
	case step < 1:
		return 1
	case step > len(w.steps):
		return len(w.steps)
	default:
		return step
	}
}

// ForwardLabel is the caption of the forward button on step.
func (w *Wizard) ForwardLabel(step int) string {
	if w.Clamp(step) == len(w.steps) {
		return SubmitLabel
	}
	return NextLabel
}

// Prev moves back one step, never past the first.
func (w *Wizard) Prev(step int) int {
	return w.Clamp(step - 1)
}

// Next validates the current step.  On failure the step is kept and the
// offending field names are returned.
func (w *Wizard) Next(step int, values url.Values) Result {
	step = w.Clamp(step)
	if invalid := w.Validate(step, values); len(invalid) > 0 {
		return Result{Step: step, Invalid: invalid, Message: MissingFieldsMessage}
	}
	if step == len(w.steps) {
		return Result{Step: step, Done: true}
	}
	return Result{Step: step + 1}
}

// Validate returns the names of fields on step that are missing or
// malformed.  Fields behind an unticked toggle are skipped.
func (w *Wizard) Validate(step int, values url.Values) []string {
	var invalid []string
	for _, f := range w.steps[w.Clamp(step)-1].Fields {
		if f.EnabledBy != "" && !Checked(values, f.EnabledBy) {
			continue
		}
		v := strings.TrimSpace(values.Get(f.Name))
		if v == "" {
			if f.Required {
				invalid = append(invalid, f.Name)
			}
			continue
		}
		if !wellFormed(f.Kind, v) {
			invalid = append(invalid, f.Name)
		}
	}
	return invalid
}

// Enabled reports whether field is usable given the current values.
func Enabled(f Field, values url.Values) bool {
	return f.EnabledBy == "" || Checked(values, f.EnabledBy)
}

// Build validates every step and converts the form into a patient record.
func (w *Wizard) Build(values url.Values) (pkg.PatientInput, error) {
	for _, s := range w.steps {
		if invalid := w.Validate(s.Number, values); len(invalid) > 0 {
			return pkg.PatientInput{}, fmt.Errorf("step %d: invalid fields %s", s.Number, strings.Join(invalid, ", "))
		}
	}

	in := pkg.PatientInput{
		FullName:               strings.TrimSpace(values.Get("full_name")),
		DOB:                    strings.TrimSpace(values.Get("dob")),
		Gender:                 strings.TrimSpace(values.Get("gender")),
		Height:                 optInt(values, "height"),
		Weight:                 optInt(values, "weight"),
		Phone:                  optString(values, "phone"),
		Email:                  optString(values, "email"),
		Diabetes:               Checked(values, "diabetes"),
		Hypertension:           Checked(values, "hypertension"),
		HeartDisease:           Checked(values, "heart_disease"),
		Asthma:                 Checked(values, "asthma"),
		Stroke:                 Checked(values, "stroke"),
		CurrentMedications:     optString(values, "current_medications"),
		NoAllergies:            Checked(values, "no_allergies"),
		MedicationAllergies:    optString(values, "medication_allergies"),
		FoodAllergies:          optString(values, "food_allergies"),
		EnvironmentalAllergies: optString(values, "environmental_allergies"),
		FamilyDiabetes:         optString(values, "family_diabetes"),
		FamilyHeartDisease:     optString(values, "family_heart_disease"),
		FamilyStroke:           optString(values, "family_stroke"),
		FamilyCancer:           optString(values, "family_cancer"),
		FamilyMentalHealth:     optString(values, "family_mental_health"),
		SmokingStatus:          optString(values, "smoking_status"),
		AlcoholUse:             optString(values, "alcohol_use"),
		ExerciseFrequency:      optString(values, "exercise_frequency"),
		Diet:                   optString(values, "diet"),
		Anxiety:                Checked(values, "anxiety"),
		Depression:             Checked(values, "depression"),
		PTSD:                   Checked(values, "ptsd"),
		ADHD:                   Checked(values, "adhd"),
		Bipolar:                Checked(values, "bipolar"),
		OtherMentalHealth:      optString(values, "other_mental_health"),
		AdditionalInfo:         optString(values, "additional_info"),
	}
	if Checked(values, OtherConditionToggle) {
		in.OtherConditions = optString(values, "other_conditions")
	}
	return in, nil
}

// Checked reports whether a checkbox value counts as ticked.
func Checked(values url.Values, name string) bool {
	switch strings.ToLower(strings.TrimSpace(values.Get(name))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func wellFormed(k Kind, v string) bool {
	switch k {
	case Date:
		_, err := time.Parse("2006-01-02", v)
		return err == nil
	case Number:
		n, err := strconv.Atoi(v)
		return err == nil && n > 0
	case Email:
		return strings.Contains(v, "@")
	}
	return true
}

func optString(values url.Values, name string) *string {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return nil
	}
	return &v
}

func optInt(values url.Values, name string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(values.Get(name)))
	if err != nil {
		return nil
	}
	return &n
}
