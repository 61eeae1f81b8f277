package db

import (
	"context"
	"errors"

	"caresync/pkg"
)

// ErrNotFound is returned when a patient, clinician or query does not exist.
var ErrNotFound = errors.New("not found")

// QueryFilter narrows ListQueries.  Zero-valued fields are ignored.
type QueryFilter struct {
	PatientID   string
	ClinicianID int64
	ChatID      string
	Status      pkg.QueryStatus
}

// Review describes a clinician action on a query.  A nil Status leaves the
// status unchanged, a nil Response leaves the stored answer unchanged.
type Review struct {
	Status      *pkg.QueryStatus
	Response    *string
	ClinicianID *int64
}

// Store is the persistence port of the API.  Repository implements it on
// Postgres and MemoryStore in process.
type Store interface {
	CreateChat(ctx context.Context, patientID *string) (string, error)
	CreateQuery(ctx context.Context, q *pkg.Query) error
	GetQuery(ctx context.Context, id int64) (*pkg.Query, error)
	ListQueries(ctx context.Context, f QueryFilter) ([]pkg.Query, error)
	ReviewQuery(ctx context.Context, id int64, rv Review) (*pkg.Query, error)

	CreatePatient(ctx context.Context, in pkg.PatientInput) (*pkg.Patient, error)
	GetPatient(ctx context.Context, id int64) (*pkg.Patient, error)
	ListPatients(ctx context.Context) ([]pkg.Patient, error)

	CreateClinician(ctx context.Context, c pkg.Clinician) (*pkg.Clinician, error)
	GetClinician(ctx context.Context, id int64) (*pkg.Clinician, error)
	ListClinicians(ctx context.Context) ([]pkg.Clinician, error)

	Summary(ctx context.Context) (pkg.DBSummary, error)
}
