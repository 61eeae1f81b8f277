package core

// prompts.go keeps the assistant wording in one place so it can be tuned
// without touching the answer flow.

const (
	// SystemPrompt frames every patient query.
	SystemPrompt = "You are a medical assistant. Provide helpful and safe responses."

	// BlockedAnswer is returned when the model refuses the query on safety
	// grounds.
	BlockedAnswer = "Sorry, I cannot provide a response to that query due to safety concerns."

	// FallbackAnswer is stored and returned when the model cannot be reached.
	FallbackAnswer = "I apologize, but I'm having trouble generating a response right now. Please try again later."
)
