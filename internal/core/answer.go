package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caresync/internal/llm"
	"caresync/pkg"
)

// AnswerService produces the assistant's reply to a patient query.  Model
// failures never surface to the caller; a fixed apology is returned instead
// so the query can still be stored for clinician review.
type AnswerService struct {
	LLM llm.Client
	Now func() time.Time
}

// NewAnswerService constructs a new AnswerService with the given LLM client.
func NewAnswerService(client llm.Client) *AnswerService {
	return &AnswerService{LLM: client, Now: time.Now}
}

// PatientContext renders the short patient description added to the prompt,
// e.g. "Patient: Jane Doe, Female, Age: 34.".  A nil patient yields "".
func (s *AnswerService) PatientContext(p *pkg.Patient) string {
	if p == nil {
		return ""
	}
	dob, err := time.Parse("2006-01-02", p.DOB)
	if err != nil {
		return fmt.Sprintf("Patient: %s, %s.", p.FullName, p.Gender)
	}
	// calendar-year difference, not exact age
	age := s.Now().Year() - dob.Year()
	return fmt.Sprintf("Patient: %s, %s, Age: %d.", p.FullName, p.Gender, age)
}

// Answer asks the model about query, replaying the earlier turns of the
// same chat so follow-up questions keep their context.  The returned error
// is informational only: the string is always a displayable answer.
func (s *AnswerService) Answer(ctx context.Context, query, patientContext string, earlier []pkg.Query) (string, error) {
	prompt := SystemPrompt
	if patientContext != "" {
		prompt += "\nPatient context: " + patientContext
	}
	msgs := make([]llm.Message, 0, 2*len(earlier)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: prompt})
	for _, q := range earlier {
		msgs = append(msgs, llm.Message{Role: "user", Content: q.Text})
		if q.Response != nil && *q.Response != "" {
			msgs = append(msgs, llm.Message{Role: "assistant", Content: *q.Response})
		}
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: query})

	if s.LLM == nil {
		return FallbackAnswer, errors.New("no language model configured")
	}
	resp, err := s.LLM.Chat(ctx, msgs)
	if err != nil {
		if errors.Is(err, llm.ErrBlocked) {
			return BlockedAnswer, err
		}
		return FallbackAnswer, err
	}
	return resp, nil
}
