package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"caresync/internal/clinician"
	"caresync/internal/intake"
	"caresync/internal/session"
	"caresync/pkg"
)

type fakeBackend struct {
	resp     pkg.AIQueryResponse
	records  []pkg.HistoryRecord
	submits  int
	pending  []pkg.Query
	verified []int64
	patients []pkg.PatientInput
}

func (f *fakeBackend) SubmitQuery(_ context.Context, _ pkg.AIQueryRequest) (pkg.AIQueryResponse, error) {
	f.submits++
	return f.resp, nil
}

func (f *fakeBackend) ListQueries(_ context.Context, _ string) ([]pkg.HistoryRecord, error) {
	return f.records, nil
}

func (f *fakeBackend) ListByStatus(_ context.Context, s pkg.QueryStatus) ([]pkg.Query, error) {
	if s == pkg.StatusPending {
		return f.pending, nil
	}
	return nil, nil
}

func (f *fakeBackend) Verify(_ context.Context, id int64, _ string) error {
	f.verified = append(f.verified, id)
	return nil
}

func (f *fakeBackend) Edit(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeBackend) CreatePatient(_ context.Context, in pkg.PatientInput) (int64, error) {
	f.patients = append(f.patients, in)
	return 12, nil
}

const cookie = "caresync_session"

func setup(t *testing.T, backend *fakeBackend) (*Server, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	ctrl := session.NewController(backend, store,
		session.WithLogger(zerolog.New(io.Discard)), session.WithLocation(time.UTC))
	srv, err := NewServer(ctrl, clinician.NewReviewer(backend), intake.New(), backend, Options{CookieName: cookie})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, store
}

func post(t *testing.T, srv http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: cookie, Value: "k1"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: cookie, Value: "k1"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestQueryRendersAnswerAndHistory(t *testing.T) {
	answer := "Take it with food."
	backend := &fakeBackend{
		resp: pkg.AIQueryResponse{Success: true, Response: "Consult your doctor.", ChatID: "c1"},
		records: []pkg.HistoryRecord{
			{ID: 1, QueryText: "a", Status: "Verified", Response: &answer, CreatedAt: "2025-03-01T10:00:00Z"},
			{ID: 2, QueryText: "b", Status: "Pending", CreatedAt: "2025-03-01T11:00:00Z"},
			{ID: 3, QueryText: "c", Status: "Completed", CreatedAt: "2025-03-01T12:00:00Z"},
		},
	}
	srv, store := setup(t, backend)
	_ = store.Save(context.Background(), "k1", session.State{PatientID: "42"})

	rec := post(t, srv, "/dashboard/query", url.Values{"query": {"Can I take ibuprofen with aspirin?"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Consult your doctor.") {
		t.Fatalf("answer missing: %s", body)
	}
	if n := strings.Count(body, `class="query-item verified"`); n != 2 {
		t.Fatalf("verified items = %d", n)
	}
	if n := strings.Count(body, `class="query-item unverified"`); n != 1 {
		t.Fatalf("unverified items = %d", n)
	}
	if !strings.Contains(body, `hx-swap-oob="true"`) {
		t.Fatal("history should be swapped out of band")
	}
	if !strings.Contains(body, "Asked on: Mar 1, 2025, 10:00:00 AM") {
		t.Fatalf("timestamp missing: %s", body)
	}
	st, _ := store.Load(context.Background(), "k1")
	if st.ChatID != "c1" {
		t.Fatalf("chat id = %q", st.ChatID)
	}
}

func TestQueryBlankShowsAlert(t *testing.T) {
	backend := &fakeBackend{}
	srv, _ := setup(t, backend)

	rec := post(t, srv, "/dashboard/query", url.Values{"query": {"  "}})
	if !strings.Contains(rec.Body.String(), session.ValidationMessage) {
		t.Fatalf("alert missing: %s", rec.Body.String())
	}
	if backend.submits != 0 {
		t.Fatalf("submits = %d", backend.submits)
	}
}

func TestQueryFailureShowsMessage(t *testing.T) {
	backend := &fakeBackend{resp: pkg.AIQueryResponse{Success: false, Message: "Invalid request data"}}
	srv, _ := setup(t, backend)

	body := post(t, srv, "/dashboard/query", url.Values{"query": {"x"}}).Body.String()
	if !strings.Contains(body, "Error: Invalid request data") {
		t.Fatalf("body = %s", body)
	}
	if strings.Contains(body, `id="queryList"`) {
		t.Fatal("history must not be re-rendered after a failure")
	}
}

func TestHistoryEmptyAndEscaped(t *testing.T) {
	backend := &fakeBackend{}
	srv, _ := setup(t, backend)

	body := get(t, srv, "/dashboard/history").Body.String()
	if !strings.Contains(body, session.HistoryEmptyText) {
		t.Fatalf("empty indicator missing: %s", body)
	}

	backend.records = []pkg.HistoryRecord{{ID: 1, QueryText: "<script>alert(1)</script>", Status: "Pending"}}
	body = get(t, srv, "/dashboard/history").Body.String()
	if strings.Contains(body, "<script>alert(1)") || !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("query text not escaped: %s", body)
	}
}

func TestLoginHandoff(t *testing.T) {
	srv, store := setup(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/login?patientId=42", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var key string
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookie {
			key = c.Value
		}
	}
	if key == "" {
		t.Fatal("session cookie not set")
	}
	st, _ := store.Load(context.Background(), key)
	if st.PatientID != "42" || st.ChatID != "" {
		t.Fatalf("state = %+v", st)
	}
}

func TestClinicianVerify(t *testing.T) {
	backend := &fakeBackend{pending: []pkg.Query{{ID: 1, Text: "Can I take Lisinopril with food?", Status: pkg.StatusPending}}}
	srv, _ := setup(t, backend)

	page := get(t, srv, "/clinician").Body.String()
	if !strings.Contains(page, "Can I take Lisinopril with food?") {
		t.Fatalf("pending query missing: %s", page)
	}

	body := post(t, srv, "/clinician/queries/1/verify", url.Values{"response": {""}}).Body.String()
	if !strings.Contains(body, clinician.EmptyVerifyMessage) || len(backend.verified) != 0 {
		t.Fatalf("body = %s", body)
	}

	body = post(t, srv, "/clinician/queries/1/verify", url.Values{"response": {"Yes."}}).Body.String()
	if !strings.Contains(body, clinician.VerifiedMessage) || !strings.Contains(body, `id="queue"`) {
		t.Fatalf("body = %s", body)
	}
	if len(backend.verified) != 1 || backend.verified[0] != 1 {
		t.Fatalf("verified = %v", backend.verified)
	}
}

func TestIntakeFlow(t *testing.T) {
	backend := &fakeBackend{}
	srv, store := setup(t, backend)

	body := post(t, srv, "/intake", url.Values{"step": {"1"}, "action": {"next"}}).Body.String()
	if !strings.Contains(body, intake.MissingFieldsMessage) || !strings.Contains(body, `class="error"`) {
		t.Fatalf("body = %s", body)
	}

	form := url.Values{
		"step":           {"6"},
		"action":         {"next"},
		"full_name":      {"Ada"},
		"dob":            {"1990-12-10"},
		"gender":         {"Female"},
		"smoking_status": {"Never"},
		"alcohol_use":    {"None"},
	}
	rec := post(t, srv, "/intake", form)
	if rec.Code != http.StatusNoContent || rec.Header().Get("HX-Redirect") != "/dashboard" {
		t.Fatalf("status = %d, headers = %v", rec.Code, rec.Header())
	}
	if len(backend.patients) != 1 || backend.patients[0].FullName != "Ada" {
		t.Fatalf("patients = %+v", backend.patients)
	}
	st, _ := store.Load(context.Background(), "k1")
	if st.PatientID != "12" {
		t.Fatalf("state = %+v", st)
	}
}
