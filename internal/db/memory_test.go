package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"caresync/pkg"
)

func strPtr(s string) *string { return &s }

func TestMemoryStoreListQueriesFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	chat, err := s.CreateChat(ctx, strPtr("42"))
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	for _, q := range []pkg.Query{
		{ChatID: chat, PatientID: strPtr("42"), Text: "first"},
		{ChatID: chat, PatientID: strPtr("42"), Text: "second", Status: pkg.StatusVerified},
		{ChatID: "other", PatientID: strPtr("7"), Text: "third"},
	} {
		q := q
		if err := s.CreateQuery(ctx, &q); err != nil {
			t.Fatalf("CreateQuery: %v", err)
		}
	}

	got, _ := s.ListQueries(ctx, QueryFilter{PatientID: "42"})
	if len(got) != 2 || got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("unexpected patient filter result: %+v", got)
	}
	if got[0].Status != pkg.StatusPending {
		t.Fatalf("expected default Pending status, got %q", got[0].Status)
	}

	pending, _ := s.ListQueries(ctx, QueryFilter{Status: pkg.StatusPending})
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	byChat, _ := s.ListQueries(ctx, QueryFilter{ChatID: chat})
	if len(byChat) != 2 {
		t.Fatalf("expected 2 in chat, got %d", len(byChat))
	}
}

func TestMemoryStoreReviewQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	q := pkg.Query{ChatID: "c1", Text: "q"}
	if err := s.CreateQuery(ctx, &q); err != nil {
		t.Fatal(err)
	}

	verified := pkg.StatusVerified
	got, err := s.ReviewQuery(ctx, q.ID, Review{Status: &verified, Response: strPtr("ok")})
	if err != nil {
		t.Fatalf("ReviewQuery: %v", err)
	}
	if got.Status != pkg.StatusVerified || got.Response == nil || *got.Response != "ok" {
		t.Fatalf("unexpected review result: %+v", got)
	}

	if _, err := s.ReviewQuery(ctx, 99, Review{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	sum, _ := s.Summary(ctx)
	if sum.TotalQueries != 1 || sum.PendingQueries != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestBrokerDeliversUntilCancelled(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)

	if err := b.Publish(context.Background(), pkg.QueryEvent{Type: pkg.EventQueryCreated, QueryID: 1}); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-ch:
		if ev.QueryID != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
