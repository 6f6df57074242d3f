package dbpedia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const natureResults = `{
  "head": {"vars": ["journal", "issn"]},
  "results": {"bindings": [
    {"journal": {"type": "uri", "value": "http://dbpedia.org/resource/Nature_(journal)"},
     "issn": {"type": "literal", "value": "1476-4687"}},
    {"journal": {"type": "uri", "value": "http://dbpedia.org/resource/Nature_(journal)"},
     "issn": {"type": "literal", "value": "0028-0836"}}
  ]}
}`

func TestJournalISSN_GroupsByResource(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(natureResults))
	}))
	defer ts.Close()

	c := NewClient(WithEndpoint(ts.URL))
	journals, err := c.JournalISSN(context.Background(), "Nature")
	if err != nil {
		t.Fatalf("JournalISSN() error = %v", err)
	}
	if len(journals) != 1 {
		t.Fatalf("JournalISSN() returned %d journals, want 1", len(journals))
	}
	if got := strings.Join(journals[0].ISSNs, ","); got != "0028-0836,1476-4687" {
		t.Errorf("ISSNs = %s, want sorted pair", got)
	}
	if !strings.Contains(gotQuery, `FILTER(str(?journal_name) = "Nature")`) {
		t.Errorf("query does not filter on the journal name:\n%s", gotQuery)
	}
}

func TestJournalISSN_NoBindings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"bindings": []}}`))
	}))
	defer ts.Close()

	_, err := NewClient(WithEndpoint(ts.URL)).JournalISSN(context.Background(), "Unknown Journal")
	if !IsNotFound(err) {
		t.Errorf("JournalISSN() error = %v, want ErrNotFound", err)
	}
	if IsRetryable(err) {
		t.Error("not-found should not be retryable")
	}
}

func TestJournalISSN_HTTPErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			_, err := NewClient(WithEndpoint(ts.URL)).JournalISSN(context.Background(), "Nature")
			if err == nil {
				t.Fatal("JournalISSN() expected error")
			}
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", err, got, tt.retryable)
			}
		})
	}
}

func TestJournalISSN_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer ts.Close()

	_, err := NewClient(WithEndpoint(ts.URL)).JournalISSN(context.Background(), "Nature")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("JournalISSN() error = %v, want ErrInvalidResponse", err)
	}
}

func TestJournalISSN_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(WithEndpoint(ts.URL)).JournalISSN(ctx, "Nature")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("JournalISSN() error = %v, want deadline exceeded", err)
	}
	if !IsRetryable(err) {
		t.Error("timeouts should be retryable")
	}
}

func TestEscapeLiteral(t *testing.T) {
	got := escapeLiteral(`Say "hi" \ bye`)
	want := `Say \"hi\" \\ bye`
	if got != want {
		t.Errorf("escapeLiteral() = %q, want %q", got, want)
	}
}
