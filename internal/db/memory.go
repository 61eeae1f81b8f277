package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caresync/pkg"
)

// MemoryStore keeps everything in process.  It backs the API when no
// DATABASE_URL is configured and is used by the handler tests.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	chats      map[string]*string
	queries    []pkg.Query
	patients   []pkg.Patient
	clinicians []pkg.Clinician
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   func() time.Time { return time.Now().UTC() },
		chats: make(map[string]*string),
	}
}

func (m *MemoryStore) CreateChat(_ context.Context, patientID *string) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	m.chats[id] = patientID
	m.mu.Unlock()
	return id, nil
}

func (m *MemoryStore) CreateQuery(_ context.Context, q *pkg.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = int64(len(m.queries) + 1)
	if q.Status == "" {
		q.Status = pkg.StatusPending
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = m.now()
	}
	m.queries = append(m.queries, *q)
	return nil
}

func (m *MemoryStore) GetQuery(_ context.Context, id int64) (*pkg.Query, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > int64(len(m.queries)) {
		return nil, ErrNotFound
	}
	q := m.queries[id-1]
	return &q, nil
}

func (m *MemoryStore) ListQueries(_ context.Context, f QueryFilter) ([]pkg.Query, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pkg.Query, 0, len(m.queries))
	for _, q := range m.queries {
		if f.PatientID != "" && (q.PatientID == nil || *q.PatientID != f.PatientID) {
			continue
		}
		if f.ClinicianID != 0 && (q.ClinicianID == nil || *q.ClinicianID != f.ClinicianID) {
			continue
		}
		if f.ChatID != "" && q.ChatID != f.ChatID {
			continue
		}
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ReviewQuery(_ context.Context, id int64, rv Review) (*pkg.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || id > int64(len(m.queries)) {
		return nil, ErrNotFound
	}
	q := &m.queries[id-1]
	if rv.Status != nil {
		q.Status = *rv.Status
	}
	if rv.Response != nil {
		resp := *rv.Response
		q.Response = &resp
	}
	if rv.ClinicianID != nil {
		cid := *rv.ClinicianID
		q.ClinicianID = &cid
	}
	out := *q
	return &out, nil
}

func (m *MemoryStore) CreatePatient(_ context.Context, in pkg.PatientInput) (*pkg.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := pkg.Patient{ID: int64(len(m.patients) + 1), PatientInput: in}
	m.patients = append(m.patients, p)
	return &p, nil
}

func (m *MemoryStore) GetPatient(_ context.Context, id int64) (*pkg.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > int64(len(m.patients)) {
		return nil, ErrNotFound
	}
	p := m.patients[id-1]
	return &p, nil
}

func (m *MemoryStore) ListPatients(_ context.Context) ([]pkg.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]pkg.Patient(nil), m.patients...), nil
}

func (m *MemoryStore) CreateClinician(_ context.Context, c pkg.Clinician) (*pkg.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.clinicians) + 1)
	m.clinicians = append(m.clinicians, c)
	return &c, nil
}

func (m *MemoryStore) GetClinician(_ context.Context, id int64) (*pkg.Clinician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > int64(len(m.clinicians)) {
		return nil, ErrNotFound
	}
	c := m.clinicians[id-1]
	return &c, nil
}

func (m *MemoryStore) ListClinicians(_ context.Context) ([]pkg.Clinician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]pkg.Clinician(nil), m.clinicians...), nil
}

func (m *MemoryStore) Summary(_ context.Context) (pkg.DBSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := pkg.DBSummary{
		TotalPatients:   len(m.patients),
		TotalClinicians: len(m.clinicians),
		TotalQueries:    len(m.queries),
	}
	for _, q := range m.queries {
		switch q.Status {
		case pkg.StatusPending:
			s.PendingQueries++
		case pkg.StatusCompleted:
			s.CompletedQueries++
		}
	}
	return s, nil
}
