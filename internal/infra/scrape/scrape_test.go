//go:build !integration

package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestGreenhouseBoardSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acme/jobs":
			w.Write([]byte(`{"jobs":[
				{"title":"Software Engineer","absolute_url":"https://boards.greenhouse.io/acme/jobs/1",
				 "updated_at":"2026-08-01T10:00:00Z","location":{"name":"Remote"}},
				{"title":"Backend Engineer","absolute_url":"https://boards.greenhouse.io/acme/jobs/2",
				 "updated_at":"bogus","location":{"name":"NYC"}}
			]}`))
		case "/dead/jobs":
			http.Error(w, "not found", http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	src := NewGreenhouseBoardSource([]string{"acme", "dead"}, nopLogger())
	src.base = srv.URL

	postings, err := src.Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2 (dead board skipped)", len(postings))
	}
	if postings[0].Title != "Software Engineer" || postings[0].Company != "acme" {
		t.Errorf("first posting = %+v", postings[0])
	}
	if postings[0].PostedAt == nil {
		t.Error("parseable updated_at should populate PostedAt")
	}
	if postings[1].PostedAt != nil {
		t.Error("bogus updated_at should leave PostedAt nil")
	}
}

func TestGreenhouseBoardSource_AllBoardsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewGreenhouseBoardSource([]string{"a", "b"}, nopLogger())
	src.base = srv.URL

	if _, err := src.Fetch(context.Background(), 0); err == nil {
		t.Fatal("expected error when every board fails")
	}
}

func TestLeverPostingsSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") != "json" {
			t.Errorf("missing mode=json, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"text":"Platform Engineer","hostedUrl":"https://jobs.lever.co/acme/1",
			 "applyUrl":"https://jobs.lever.co/acme/1/apply","createdAt":1754000000000,
			 "categories":{"location":"Remote"}}
		]`))
	}))
	defer srv.Close()

	src := NewLeverPostingsSource([]string{"acme"}, nopLogger())
	src.base = srv.URL

	postings, err := src.Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("got %d postings, want 1", len(postings))
	}
	p := postings[0]
	if p.Title != "Platform Engineer" || p.ApplyURL == "" || p.PostedAt == nil {
		t.Errorf("posting = %+v", p)
	}
}

func TestRemotiveSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "golang" {
			t.Errorf("search = %q, want golang", r.URL.Query().Get("search"))
		}
		w.Write([]byte(`{"jobs":[
			{"title":"Go Developer","company_name":"Acme","url":"https://remotive.com/remote-jobs/1",
			 "candidate_required_location":"Worldwide","publication_date":"2026-08-10T08:30:00"}
		]}`))
	}))
	defer srv.Close()

	src := NewRemotiveSource("golang", nopLogger())
	src.base = srv.URL

	postings, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 || postings[0].Company != "Acme" || postings[0].PostedAt == nil {
		t.Errorf("postings = %+v", postings)
	}
}
