package web

import (
	"net/http"
	"net/url"
	"strconv"

	"caresync/internal/intake"
	"caresync/internal/logger"
)

const registrationFailedMessage = "Error connecting to the server. Please try again."

type intakeView struct {
	Steps   []intake.Step
	Step    int
	Total   int
	Forward string
	Message string
	Values  url.Values
	Invalid map[string]bool
}

type fieldData struct {
	intake.Field
	Value    string
	Checked  bool
	Invalid  bool
	Disabled bool
	// Controls names the field this checkbox enables.
	Controls string
}

func (s *Server) intakeView(step int, values url.Values) intakeView {
	step = s.Wizard.Clamp(step)
	return intakeView{
		Steps:   s.Wizard.Steps(),
		Step:    step,
		Total:   s.Wizard.Total(),
		Forward: s.Wizard.ForwardLabel(step),
		Values:  values,
		Invalid: map[string]bool{},
	}
}

func (s *Server) fieldView(v intakeView, f intake.Field) fieldData {
	d := fieldData{
		Field:    f,
		Value:    v.Values.Get(f.Name),
		Checked:  intake.Checked(v.Values, f.Name),
		Invalid:  v.Invalid[f.Name],
		Disabled: !intake.Enabled(f, v.Values),
	}
	if f.Kind == intake.Checkbox {
		for _, st := range v.Steps {
			for _, other := range st.Fields {
				if other.EnabledBy == f.Name {
					d.Controls = other.Name
				}
			}
		}
	}
	return d
}

func (s *Server) handleIntakePage(w http.ResponseWriter, r *http.Request) {
	step, _ := strconv.Atoi(r.URL.Query().Get("step"))
	s.render(w, r, "intake.html", s.intakeView(step, url.Values{}))
}

// handleIntakeStep moves the form back or forward.  Every step is posted
// on each round trip, so the last step can build the whole record.
func (s *Server) handleIntakeStep(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	values := r.PostForm
	step, _ := strconv.Atoi(values.Get("step"))

	if values.Get("action") == "prev" {
		s.render(w, r, "intake_form", s.intakeView(s.Wizard.Prev(step), values))
		return
	}

	res := s.Wizard.Next(step, values)
	if !res.Done {
		v := s.intakeView(res.Step, values)
		v.Message = res.Message
		for _, name := range res.Invalid {
			v.Invalid[name] = true
		}
		s.render(w, r, "intake_form", v)
		return
	}

	in, err := s.Wizard.Build(values)
	if err != nil {
		v := s.intakeView(res.Step, values)
		v.Message = intake.MissingFieldsMessage
		s.render(w, r, "intake_form", v)
		return
	}
	id, err := s.Patients.CreatePatient(r.Context(), in)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("register patient")
		v := s.intakeView(res.Step, values)
		v.Message = registrationFailedMessage
		s.render(w, r, "intake_form", v)
		return
	}

	key := s.sessionKey(w, r)
	if _, err := s.Sessions.Bind(r.Context(), key, strconv.FormatInt(id, 10)); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("bind session to new patient")
	}
	w.Header().Set("HX-Redirect", "/dashboard")
	w.WriteHeader(http.StatusNoContent)
}
