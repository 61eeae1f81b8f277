package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"caresync/pkg"
)

// Repository implements Store on PostgreSQL.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// CreateChat opens a new chat session for the (possibly unknown) patient.
func (r *Repository) CreateChat(ctx context.Context, patientID *string) (string, error) {
	id := uuid.New()
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO chats (chat_id, patient_id) VALUES ($1, $2)`,
		id.String(), patientID,
	); err != nil {
		return "", fmt.Errorf("insert chat: %w", err)
	}
	return id.String(), nil
}

// CreateQuery inserts q and fills its ID, status and creation time.
func (r *Repository) CreateQuery(ctx context.Context, q *pkg.Query) error {
	if q.Status == "" {
		q.Status = pkg.StatusPending
	}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO queries (chat_id, patient_id, clinician_id, query_text, response, query_status)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING query_id, created_at`,
		q.ChatID, q.PatientID, q.ClinicianID, q.Text, q.Response, string(q.Status),
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	return nil
}

const queryColumns = `query_id, chat_id, patient_id, clinician_id, query_text, response, query_status, created_at`

func scanQuery(row interface{ Scan(...any) error }) (pkg.Query, error) {
	var (
		q         pkg.Query
		patientID sql.NullString
		clinician sql.NullInt64
		response  sql.NullString
		status    string
	)
	if err := row.Scan(&q.ID, &q.ChatID, &patientID, &clinician, &q.Text, &response, &status, &q.CreatedAt); err != nil {
		return pkg.Query{}, err
	}
	q.Status = pkg.QueryStatus(status)
	if patientID.Valid {
		q.PatientID = &patientID.String
	}
	if clinician.Valid {
		q.ClinicianID = &clinician.Int64
	}
	if response.Valid {
		q.Response = &response.String
	}
	return q, nil
}

// GetQuery loads one query by ID.
func (r *Repository) GetQuery(ctx context.Context, id int64) (*pkg.Query, error) {
	q, err := scanQuery(r.DB.QueryRowContext(ctx,
		`SELECT `+queryColumns+` FROM queries WHERE query_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// ListQueries returns the queries matching f in submission order.
func (r *Repository) ListQueries(ctx context.Context, f QueryFilter) ([]pkg.Query, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.PatientID != "" {
		add("patient_id = $%d", f.PatientID)
	}
	if f.ClinicianID != 0 {
		add("clinician_id = $%d", f.ClinicianID)
	}
	if f.ChatID != "" {
		add("chat_id = $%d", f.ChatID)
	}
	if f.Status != "" {
		add("query_status = $%d", string(f.Status))
	}
	stmt := `SELECT ` + queryColumns + ` FROM queries`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	stmt += ` ORDER BY created_at ASC, query_id ASC`

	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pkg.Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ReviewQuery applies a clinician action and returns the updated query.
func (r *Repository) ReviewQuery(ctx context.Context, id int64, rv Review) (*pkg.Query, error) {
	var status *string
	if rv.Status != nil {
		s := string(*rv.Status)
		status = &s
	}
	q, err := scanQuery(r.DB.QueryRowContext(ctx,
		`UPDATE queries
         SET query_status = COALESCE($2, query_status),
             response     = COALESCE($3, response),
             clinician_id = COALESCE($4, clinician_id)
         WHERE query_id = $1
         RETURNING `+queryColumns,
		id, status, rv.Response, rv.ClinicianID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

const patientColumns = `patient_id, full_name, dob, gender, height, weight, phone, email,
    diabetes, hypertension, heart_disease, asthma, stroke, other_conditions,
    current_medications, no_allergies, medication_allergies, food_allergies,
    environmental_allergies, family_diabetes, family_heart_disease, family_stroke,
    family_cancer, family_mental_health, smoking_status, alcohol_use,
    exercise_frequency, diet, anxiety, depression, ptsd, adhd, bipolar,
    other_mental_health, additional_info`

func scanPatient(row interface{ Scan(...any) error }) (pkg.Patient, error) {
	var (
		p      pkg.Patient
		dob    time.Time
		height sql.NullInt64
		weight sql.NullInt64
	)
	in := &p.PatientInput
	err := row.Scan(&p.ID, &in.FullName, &dob, &in.Gender, &height, &weight, &in.Phone, &in.Email,
		&in.Diabetes, &in.Hypertension, &in.HeartDisease, &in.Asthma, &in.Stroke, &in.OtherConditions,
		&in.CurrentMedications, &in.NoAllergies, &in.MedicationAllergies, &in.FoodAllergies,
		&in.EnvironmentalAllergies, &in.FamilyDiabetes, &in.FamilyHeartDisease, &in.FamilyStroke,
		&in.FamilyCancer, &in.FamilyMentalHealth, &in.SmokingStatus, &in.AlcoholUse,
		&in.ExerciseFrequency, &in.Diet, &in.Anxiety, &in.Depression, &in.PTSD, &in.ADHD, &in.Bipolar,
		&in.OtherMentalHealth, &in.AdditionalInfo)
	if err != nil {
		return pkg.Patient{}, err
	}
	in.DOB = dob.Format("2006-01-02")
	if height.Valid {
		h := int(height.Int64)
		in.Height = &h
	}
	if weight.Valid {
		w := int(weight.Int64)
		in.Weight = &w
	}
	return p, nil
}

// CreatePatient stores the intake form result.
func (r *Repository) CreatePatient(ctx context.Context, in pkg.PatientInput) (*pkg.Patient, error) {
	p, err := scanPatient(r.DB.QueryRowContext(ctx,
		`INSERT INTO patients (full_name, dob, gender, height, weight, phone, email,
            diabetes, hypertension, heart_disease, asthma, stroke, other_conditions,
            current_medications, no_allergies, medication_allergies, food_allergies,
            environmental_allergies, family_diabetes, family_heart_disease, family_stroke,
            family_cancer, family_mental_health, smoking_status, alcohol_use,
            exercise_frequency, diet, anxiety, depression, ptsd, adhd, bipolar,
            other_mental_health, additional_info)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
                 $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)
         RETURNING `+patientColumns,
		in.FullName, in.DOB, in.Gender, in.Height, in.Weight, in.Phone, in.Email,
		in.Diabetes, in.Hypertension, in.HeartDisease, in.Asthma, in.Stroke, in.OtherConditions,
		in.CurrentMedications, in.NoAllergies, in.MedicationAllergies, in.FoodAllergies,
		in.EnvironmentalAllergies, in.FamilyDiabetes, in.FamilyHeartDisease, in.FamilyStroke,
		in.FamilyCancer, in.FamilyMentalHealth, in.SmokingStatus, in.AlcoholUse,
		in.ExerciseFrequency, in.Diet, in.Anxiety, in.Depression, in.PTSD, in.ADHD, in.Bipolar,
		in.OtherMentalHealth, in.AdditionalInfo,
	))
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return &p, nil
}

// GetPatient loads one patient by ID.
func (r *Repository) GetPatient(ctx context.Context, id int64) (*pkg.Patient, error) {
	p, err := scanPatient(r.DB.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE patient_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPatients returns every patient ordered by ID.
func (r *Repository) ListPatients(ctx context.Context) ([]pkg.Patient, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY patient_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pkg.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const clinicianColumns = `clinician_id, full_name, email, phone, medical_reg_number,
    specialization, years_of_experience, affiliated_hospitals`

func scanClinician(row interface{ Scan(...any) error }) (pkg.Clinician, error) {
	var c pkg.Clinician
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.MedicalRegNumber,
		&c.Specialization, &c.YearsOfExperience, &c.AffiliatedHospitals)
	return c, err
}

// CreateClinician registers a reviewer.
func (r *Repository) CreateClinician(ctx context.Context, c pkg.Clinician) (*pkg.Clinician, error) {
	out, err := scanClinician(r.DB.QueryRowContext(ctx,
		`INSERT INTO clinicians (full_name, email, phone, medical_reg_number, specialization,
            years_of_experience, affiliated_hospitals)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+clinicianColumns,
		c.FullName, c.Email, c.Phone, c.MedicalRegNumber, c.Specialization,
		c.YearsOfExperience, c.AffiliatedHospitals,
	))
	if err != nil {
		return nil, fmt.Errorf("insert clinician: %w", err)
	}
	return &out, nil
}

// GetClinician loads one clinician by ID.
func (r *Repository) GetClinician(ctx context.Context, id int64) (*pkg.Clinician, error) {
	c, err := scanClinician(r.DB.QueryRowContext(ctx,
		`SELECT `+clinicianColumns+` FROM clinicians WHERE clinician_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListClinicians returns every clinician ordered by ID.
func (r *Repository) ListClinicians(ctx context.Context) ([]pkg.Clinician, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+clinicianColumns+` FROM clinicians ORDER BY clinician_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pkg.Clinician
	for rows.Next() {
		c, err := scanClinician(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Summary counts the main entities for the admin overview.
func (r *Repository) Summary(ctx context.Context) (pkg.DBSummary, error) {
	var s pkg.DBSummary
	err := r.DB.QueryRowContext(ctx,
		`SELECT
            (SELECT COUNT(*) FROM patients),
            (SELECT COUNT(*) FROM clinicians),
            (SELECT COUNT(*) FROM queries),
            (SELECT COUNT(*) FROM queries WHERE query_status = 'Pending'),
            (SELECT COUNT(*) FROM queries WHERE query_status = 'Completed')`,
	).Scan(&s.TotalPatients, &s.TotalClinicians, &s.TotalQueries, &s.PendingQueries, &s.CompletedQueries)
	return s, err
}
