// Package portfoliodata talks to the portfolio data service: the batched
// widget-data endpoint and the live price feed.
package portfoliodata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/errs"
)

const serviceName = "portfolio-data"

type Adapter struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewAdapter(baseURL, token string) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchBatch issues the single POST that carries every visible widget's
// data needs. Per-key failures come back inside the response body; only a
// transport/HTTP-level failure returns an error.
func (a *Adapter) FetchBatch(ctx context.Context, req dto.UpstreamBatchRequest) (dto.UpstreamBatchResponse, error) {
	var out dto.UpstreamBatchResponse

	body, err := json.Marshal(req)
	if err != nil {
		return out, errs.NewTransportError(serviceName, "failed to encode batch request", false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/widgets/batch", bytes.NewReader(body))
	if err != nil {
		return out, errs.NewTransportError(serviceName, "failed to build batch request", false, err)
	}
	a.setHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return out, errs.NewTransportError(serviceName, "batch request failed", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, errs.NewTransportError(serviceName,
			fmt.Sprintf("batch request returned %s", resp.Status),
			resp.StatusCode >= http.StatusInternalServerError, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, errs.NewTransportError(serviceName, "failed to decode batch response", false, err)
	}
	return out, nil
}

// FetchPrices returns live quotes for the given symbols.
func (a *Adapter) FetchPrices(ctx context.Context, symbols []string) ([]dto.PriceQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	u := fmt.Sprintf("%s/v1/prices?symbols=%s", a.baseURL, url.QueryEscape(strings.Join(symbols, ",")))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errs.NewTransportError(serviceName, "failed to build price request", false, err)
	}
	a.setHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, errs.NewTransportError(serviceName, "price request failed", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewTransportError(serviceName,
			fmt.Sprintf("price request returned %s", resp.Status),
			resp.StatusCode >= http.StatusInternalServerError, nil)
	}

	var quotes []dto.PriceQuote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, errs.NewTransportError(serviceName, "failed to decode price response", false, err)
	}
	return quotes, nil
}

func (a *Adapter) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}
