package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

func newTestArchive(t *testing.T) archive.Store {
	t.Helper()
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second"} {
		rec, err := pipeline.NewRecord(&pipeline.Result{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Tests:     []pipeline.TestResult{{Test: pipeline.TestCheck, Status: pipeline.StatusOK}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Put(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestArchiveHandler(t *testing.T) {
	h := newArchiveHandler(newTestArchive(t), log.New(&bytes.Buffer{}))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"health", "/healthz", http.StatusOK},
		{"list", "/runs", http.StatusOK},
		{"list limit", "/runs?limit=1", http.StatusOK},
		{"bad limit", "/runs?limit=x", http.StatusBadRequest},
		{"show", "/runs/first", http.StatusOK},
		{"missing", "/runs/nosuch", http.StatusNotFound},
		{"unknown route", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
			}
		})
	}
}

func TestArchiveHandlerList(t *testing.T) {
	h := newArchiveHandler(newTestArchive(t), log.New(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=1", nil))

	var runs []runSummary
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "second" {
		t.Errorf("runs = %+v, want newest only", runs)
	}
	if runs[0].Summary != "1 ok" {
		t.Errorf("summary = %q", runs[0].Summary)
	}
}

func TestArchiveHandlerShow(t *testing.T) {
	h := newArchiveHandler(newTestArchive(t), log.New(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/first", nil))

	var res pipeline.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ID != "first" || len(res.Tests) != 1 || res.Tests[0].Test != pipeline.TestCheck {
		t.Errorf("result = %+v", res)
	}
}

func TestArchiveLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := archiveLogHooks{newLogger(&buf, LogDebug)}
	h.OnArchiveHit(context.Background(), "first")
	h.OnArchiveMiss(context.Background(), "nosuch")

	out := buf.String()
	for _, want := range []string{"archive hit", "run=first", "archive miss", "run=nosuch"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("log output missing %q: %q", want, out)
		}
	}
}
