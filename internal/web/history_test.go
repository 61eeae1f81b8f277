package web

import (
	"context"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"caresync/internal/apiclient"
	"caresync/internal/clinician"
	"caresync/internal/core"
	"caresync/internal/db"
	httpserver "caresync/internal/http"
	"caresync/internal/intake"
	"caresync/internal/session"
)

// newStack runs the dashboard against a real API server backed by the
// in-memory store.
func newStack(t *testing.T) (*Server, *session.MemoryStore) {
	t.Helper()
	broker := db.NewBroker()
	api := httptest.NewServer(httpserver.NewServer(db.NewMemoryStore(), core.NewAnswerService(nil), broker, broker, httpserver.Options{}))
	t.Cleanup(api.Close)

	client := apiclient.New(api.URL, 5*time.Second)
	store := session.NewMemoryStore()
	ctrl := session.NewController(client, store,
		session.WithLogger(zerolog.New(io.Discard)), session.WithLocation(time.UTC))
	srv, err := NewServer(ctrl, clinician.NewReviewer(client), intake.New(), client, Options{CookieName: cookie})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, store
}

func TestAnonymousHistoryDoesNotListOtherPatients(t *testing.T) {
	srv, store := newStack(t)
	ctx := context.Background()

	if err := store.Save(ctx, "k1", session.State{PatientID: "42"}); err != nil {
		t.Fatal(err)
	}
	post(t, srv, "/dashboard/query", url.Values{"query": {"private question"}})

	own := get(t, srv, "/dashboard/history").Body.String()
	if !strings.Contains(own, "private question") {
		t.Fatalf("patient should see their own query: %s", own)
	}

	if err := store.Clear(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	anon := get(t, srv, "/dashboard/history").Body.String()
	if strings.Contains(anon, "private question") {
		t.Fatalf("anonymous session saw another patient's query: %s", anon)
	}
	if !strings.Contains(anon, session.HistoryErrorText) {
		t.Fatalf("expected the history error indicator, got %s", anon)
	}
}
