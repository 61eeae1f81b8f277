package pkg

import "time"

// QueryStatus is the review state of a patient query.  New queries start as
// Pending; a clinician moves them to Verified, and Completed is used once the
// patient has been answered out of band.
type QueryStatus string

const (
	StatusPending   QueryStatus = "Pending"
	StatusVerified  QueryStatus = "Verified"
	StatusCompleted QueryStatus = "Completed"
)

// Query represents a single clinical question submitted by a patient.  The
// patient identifier is opaque to the backend; it is stored as supplied.
type Query struct {
	ID          int64       `json:"query_id"`
	ChatID      string      `json:"chat_id"`
	PatientID   *string     `json:"patient_id"`
	ClinicianID *int64      `json:"clinician_id"`
	Text        string      `json:"query_text"`
	Response    *string     `json:"response"`
	Status      QueryStatus `json:"query_status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// HistoryRecord is the shape returned by GET /api/queries?patientId=.  It is
// kept separate from Query because the patient dashboard reads "status"
// rather than "query_status" and treats created_at as an opaque timestamp.
type HistoryRecord struct {
	ID        int64   `json:"query_id"`
	QueryText string  `json:"query_text"`
	Response  *string `json:"response"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// AIQueryRequest is the body of POST /api/ai_query.  Absent identifiers are
// sent as JSON null.
type AIQueryRequest struct {
	QueryText string  `json:"query_text"`
	PatientID *string `json:"patient_id"`
	ChatID    *string `json:"chat_id"`
}

// AIQueryResponse is returned by POST /api/ai_query.  Success is the only
// field that is always present.
type AIQueryResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	QueryID  int64  `json:"query_id,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ReviewRequest is the body of the clinician verify and edit endpoints.
type ReviewRequest struct {
	QueryID     int64   `json:"query_id"`
	Response    *string `json:"response"`
	ClinicianID *int64  `json:"clinician_id,omitempty"`
}

// Patient is a registered patient together with the medical history
// collected by the intake form.
type Patient struct {
	ID int64 `json:"patient_id"`
	PatientInput
}

// PatientInput holds the writable patient fields.  DOB uses YYYY-MM-DD.
type PatientInput struct {
	FullName               string  `json:"full_name"`
	DOB                    string  `json:"dob"`
	Gender                 string  `json:"gender"`
	Height                 *int    `json:"height"`
	Weight                 *int    `json:"weight"`
	Phone                  *string `json:"phone"`
	Email                  *string `json:"email"`
	Diabetes               bool    `json:"diabetes"`
	Hypertension           bool    `json:"hypertension"`
	HeartDisease           bool    `json:"heart_disease"`
	Asthma                 bool    `json:"asthma"`
	Stroke                 bool    `json:"stroke"`
	OtherConditions        *string `json:"other_conditions"`
	CurrentMedications     *string `json:"current_medications"`
	NoAllergies            bool    `json:"no_allergies"`
	MedicationAllergies    *string `json:"medication_allergies"`
	FoodAllergies          *string `json:"food_allergies"`
	EnvironmentalAllergies *string `json:"environmental_allergies"`
	FamilyDiabetes         *string `json:"family_diabetes"`
	FamilyHeartDisease     *string `json:"family_heart_disease"`
	FamilyStroke           *string `json:"family_stroke"`
	FamilyCancer           *string `json:"family_cancer"`
	FamilyMentalHealth     *string `json:"family_mental_health"`
	SmokingStatus          *string `json:"smoking_status"`
	AlcoholUse             *string `json:"alcohol_use"`
	ExerciseFrequency      *string `json:"exercise_frequency"`
	Diet                   *string `json:"diet"`
	Anxiety                bool    `json:"anxiety"`
	Depression             bool    `json:"depression"`
	PTSD                   bool    `json:"ptsd"`
	ADHD                   bool    `json:"adhd"`
	Bipolar                bool    `json:"bipolar"`
	OtherMentalHealth      *string `json:"other_mental_health"`
	AdditionalInfo         *string `json:"additional_info"`
}

// Clinician is a registered reviewer of patient queries.
type Clinician struct {
	ID                  int64   `json:"clinician_id"`
	FullName            string  `json:"full_name"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	MedicalRegNumber    string  `json:"medical_reg_number"`
	Specialization      string  `json:"specialization"`
	YearsOfExperience   int     `json:"years_of_experience"`
	AffiliatedHospitals *string `json:"affiliated_hospitals"`
}

// DBSummary is returned by GET /api/db-summary.
type DBSummary struct {
	TotalPatients    int `json:"total_patients"`
	TotalClinicians  int `json:"total_clinicians"`
	TotalQueries     int `json:"total_queries"`
	PendingQueries   int `json:"pending_queries"`
	CompletedQueries int `json:"completed_queries"`
}

// ChatPart and ChatTurn describe one turn of GET /api/chat_history.
type ChatPart struct {
	Text string `json:"text"`
}

type ChatTurn struct {
	Role  string     `json:"role"`
	Parts []ChatPart `json:"parts"`
}

// QueryEvent is broadcast whenever a query is created or reviewed.  Patient
// dashboards use it to refresh history; clinicians use it to refresh the
// pending list.
type QueryEvent struct {
	Type      string      `json:"type"`
	QueryID   int64       `json:"query_id"`
	ChatID    string      `json:"chat_id"`
	PatientID string      `json:"patient_id,omitempty"`
	Status    QueryStatus `json:"status"`
	At        time.Time   `json:"at"`
}

const (
	EventQueryCreated  = "query_created"
	EventQueryReviewed = "query_reviewed"
)
