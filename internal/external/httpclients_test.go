package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPBriefCatalog_GetBriefs_ParsesWireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/briefs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"b1","weight":100,"format":"dedicated","boost":1.5,"cap":0.5,"start_date":"2024-01-01","subs_min":100},
			{"id":"b2","weight":50,"format":"ad-read","boost":1,"cap":1}
		]`))
	}))
	defer server.Close()

	catalog, err := NewHTTPBriefCatalog(server.URL, 0)
	if err != nil {
		t.Fatalf("NewHTTPBriefCatalog: %v", err)
	}

	briefs, err := catalog.GetBriefs(context.Background())
	if err != nil {
		t.Fatalf("GetBriefs: %v", err)
	}
	if len(briefs) != 2 {
		t.Fatalf("expected 2 briefs, got %d", len(briefs))
	}
	if briefs[0].ID != "b1" || briefs[0].Boost != 1.5 || briefs[0].Cap != 0.5 {
		t.Fatalf("briefs[0] = %+v", briefs[0])
	}
	if briefs[0].SubsRange == nil || briefs[0].SubsRange.Min == nil || *briefs[0].SubsRange.Min != 100 {
		t.Fatalf("expected SubsRange.Min=100, got %+v", briefs[0].SubsRange)
	}
	if briefs[1].SubsRange != nil {
		t.Fatalf("expected no SubsRange for b2, got %+v", briefs[1].SubsRange)
	}
	if briefs[0].StartDate.Year() != 2024 {
		t.Fatalf("StartDate = %v, want year 2024", briefs[0].StartDate)
	}
}

func TestHTTPBriefCatalog_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	catalog, err := NewHTTPBriefCatalog(server.URL, 0)
	if err != nil {
		t.Fatalf("NewHTTPBriefCatalog: %v", err)
	}
	if _, err := catalog.GetBriefs(context.Background()); err == nil {
		t.Fatalf("expected an error for a non-200 response")
	}
}

func TestHTTPScalarOracle_FetchesNamedField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price_usd": 3.25, "other": 1}`))
	}))
	defer server.Close()

	oracle, err := NewHTTPScalarOracle(server.URL, "price_usd", 0)
	if err != nil {
		t.Fatalf("NewHTTPScalarOracle: %v", err)
	}

	price, err := oracle.GetAlphaPriceUSD(context.Background())
	if err != nil {
		t.Fatalf("GetAlphaPriceUSD: %v", err)
	}
	if price != 3.25 {
		t.Fatalf("price = %v, want 3.25", price)
	}
}

func TestHTTPScalarOracle_MissingFieldIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"other": 1}`))
	}))
	defer server.Close()

	oracle, err := NewHTTPScalarOracle(server.URL, "price_usd", 0)
	if err != nil {
		t.Fatalf("NewHTTPScalarOracle: %v", err)
	}
	if _, err := oracle.GetTotalDailyAlpha(context.Background()); err == nil {
		t.Fatalf("expected an error when the configured field is absent")
	}
}

func TestNewHTTPBriefCatalog_RejectsInvalidBaseURL(t *testing.T) {
	if _, err := NewHTTPBriefCatalog("not-a-url", time.Second); err == nil {
		t.Fatalf("expected error for an invalid base URL")
	}
}
