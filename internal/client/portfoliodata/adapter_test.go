package portfoliodata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/errs"
)

func TestFetchBatchSendsRequestAndAuth(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq dto.UpstreamBatchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(dto.UpstreamBatchResponse{
			Data: map[string]json.RawMessage{"metrics": []byte(`{"total":100}`)},
		})
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "tok123")
	resp, err := a.FetchBatch(context.Background(), dto.UpstreamBatchRequest{
		PortfolioID:    "p1",
		VisibleWidgets: []string{"total-value"},
	})
	if err != nil {
		t.Fatalf("fetch batch: %v", err)
	}
	if gotPath != "/v1/widgets/batch" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.PortfolioID != "p1" {
		t.Errorf("request = %+v", gotReq)
	}
	if len(resp.Data) != 1 {
		t.Errorf("data entries = %d, want 1", len(resp.Data))
	}
}

func TestFetchBatchServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "tok")
	_, err := a.FetchBatch(context.Background(), dto.UpstreamBatchRequest{PortfolioID: "p1"})

	var transportErr *errs.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !transportErr.Transient {
		t.Error("5xx responses should be transient")
	}
}

func TestFetchBatchClientErrorIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "tok")
	_, err := a.FetchBatch(context.Background(), dto.UpstreamBatchRequest{PortfolioID: "p1"})

	var transportErr *errs.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Transient {
		t.Error("4xx responses should not be transient")
	}
}

func TestFetchPricesBuildsQuery(t *testing.T) {
	var gotSymbols string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbols")
		json.NewEncoder(w).Encode([]dto.PriceQuote{
			{Symbol: "AAPL", Price: 185.2},
			{Symbol: "MSFT", Price: 410.1},
		})
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "tok")
	quotes, err := a.FetchPrices(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("fetch prices: %v", err)
	}
	if gotSymbols != "AAPL,MSFT" {
		t.Errorf("symbols query = %q", gotSymbols)
	}
	if len(quotes) != 2 || quotes[0].Symbol != "AAPL" {
		t.Errorf("quotes = %+v", quotes)
	}
}
