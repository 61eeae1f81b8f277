package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caresync/pkg"
)

func TestSubmitQuerySendsNullIDs(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/ai_query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"response":"Consult your doctor.","chat_id":"c1","query_id":7}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	resp, err := c.SubmitQuery(context.Background(), pkg.AIQueryRequest{QueryText: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if body != `{"query_text":"q","patient_id":null,"chat_id":null}` {
		t.Fatalf("body = %s", body)
	}
	if !resp.Success || resp.ChatID != "c1" || resp.QueryID != 7 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSubmitQueryApplicationFailureIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Invalid request data"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, time.Second).SubmitQuery(context.Background(), pkg.AIQueryRequest{QueryText: "q"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Success || resp.Message != "Invalid request data" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSubmitQueryMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).SubmitQuery(context.Background(), pkg.AIQueryRequest{QueryText: "q"})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSubmitQueryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).SubmitQuery(context.Background(), pkg.AIQueryRequest{QueryText: "q"})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestListQueriesEscapesPatientID(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		json.NewEncoder(w).Encode([]pkg.HistoryRecord{{ID: 1, QueryText: "a", Status: "Pending"}})
	}))
	defer srv.Close()

	recs, err := New(srv.URL, time.Second).ListQueries(context.Background(), "a b&c")
	if err != nil {
		t.Fatal(err)
	}
	if raw != "patientId=a+b%26c" {
		t.Fatalf("query = %s", raw)
	}
	if len(recs) != 1 || recs[0].QueryText != "a" {
		t.Fatalf("recs = %+v", recs)
	}
}

func TestListQueriesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Internal server error"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListQueries(context.Background(), "42")
	te, ok := err.(*TransportError)
	if !ok || te.Status != http.StatusInternalServerError {
		t.Fatalf("err = %#v", err)
	}
}

func TestVerifyAndCreatePatient(t *testing.T) {
	var review pkg.ReviewRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/verify_response":
			json.NewDecoder(r.Body).Decode(&review)
			w.Write([]byte(`{"success":true}`))
		case "/api/patients":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"success":true,"patient_id":12}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.Verify(context.Background(), 3, "Rest and fluids."); err != nil {
		t.Fatal(err)
	}
	if review.QueryID != 3 || review.Response == nil || *review.Response != "Rest and fluids." {
		t.Fatalf("review = %+v", review)
	}
	id, err := c.CreatePatient(context.Background(), pkg.PatientInput{FullName: "A", DOB: "1990-01-01", Gender: "F"})
	if err != nil || id != 12 {
		t.Fatalf("id = %d, err = %v", id, err)
	}
	if err := c.Edit(context.Background(), 3, "x"); !IsTransport(err) {
		t.Fatalf("expected transport error for missing endpoint, got %v", err)
	}
}
