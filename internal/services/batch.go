package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/registry"
)

// batchClient is the portfolio data service adapter interface.
type batchClient interface {
	FetchBatch(ctx context.Context, req dto.UpstreamBatchRequest) (dto.UpstreamBatchResponse, error)
}

// BatchService deduplicates the data needs of all visible widgets into one
// upstream call per cache key. A key is (portfolio, canonical visible set,
// includeSold); within the freshness window identical keys are served from
// cache, and concurrent misses for the same key are coalesced so at most
// one upstream call is ever in flight per key.
type BatchService struct {
	client batchClient
	ttl    time.Duration
	group  singleflight.Group

	mu       sync.RWMutex
	cache    map[string]*dto.BatchSnapshot
	lastGood map[string]*dto.BatchSnapshot

	now func() time.Time
}

func NewBatchService(client batchClient, ttl time.Duration) *BatchService {
	return &BatchService{
		client:   client,
		ttl:      ttl,
		cache:    make(map[string]*dto.BatchSnapshot),
		lastGood: make(map[string]*dto.BatchSnapshot),
		now:      time.Now,
	}
}

// FetchBatch returns the batch snapshot for the given visible widget set,
// from cache when fresh. Per-data-key failures ride inside the snapshot's
// Errors map and are not an error here; only a full transport failure
// returns one, and then the previous snapshot stays published.
func (s *BatchService) FetchBatch(ctx context.Context, req dto.BatchDataRequest, visible []string) (*dto.BatchSnapshot, error) {
	canonical := canonicalSet(visible)
	key := cacheKey(req.PortfolioID, canonical, req.IncludeSold)

	if snap := s.cached(key); snap != nil {
		return snap, nil
	}
	return s.fetch(ctx, key, req.PortfolioID, canonical, req.IncludeSold)
}

// Refresh bypasses the freshness window: the scheduler calls this to renew
// a snapshot that is still within TTL. Coalescing still applies.
func (s *BatchService) Refresh(ctx context.Context, req dto.BatchDataRequest, visible []string) (*dto.BatchSnapshot, error) {
	canonical := canonicalSet(visible)
	key := cacheKey(req.PortfolioID, canonical, req.IncludeSold)
	return s.fetch(ctx, key, req.PortfolioID, canonical, req.IncludeSold)
}

// LastSnapshot returns the most recent successful snapshot for the key,
// regardless of freshness. Callers use it for stale-while-error display
// after a transport failure.
func (s *BatchService) LastSnapshot(portfolioID string, visible []string, includeSold bool) (*dto.BatchSnapshot, bool) {
	key := cacheKey(portfolioID, canonicalSet(visible), includeSold)
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.lastGood[key]
	return snap, ok
}

func (s *BatchService) cached(key string) *dto.BatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.cache[key]
	if !ok || s.now().Sub(snap.Timestamp) >= s.ttl {
		return nil
	}
	served := *snap
	served.Cached = true
	return &served
}

func (s *BatchService) fetch(ctx context.Context, key, portfolioID string, canonical []string, includeSold bool) (*dto.BatchSnapshot, error) {
	// Widgets like notes render from local state only. When nothing on
	// screen maps to a data key there is nothing to fetch.
	if len(registry.DataKeysFor(canonical)) == 0 {
		return &dto.BatchSnapshot{
			Data:             map[string]json.RawMessage{},
			Timestamp:        s.now(),
			WidgetsRequested: len(canonical),
		}, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		resp, err := s.client.FetchBatch(ctx, dto.UpstreamBatchRequest{
			PortfolioID:    portfolioID,
			VisibleWidgets: canonical,
			IncludeSold:    includeSold,
		})
		if err != nil {
			return nil, err
		}
		snap := &dto.BatchSnapshot{
			Data:             resp.Data,
			Errors:           resp.Errors,
			Cached:           false,
			Timestamp:        s.now(),
			WidgetsRequested: len(canonical),
			DataFetched:      len(resp.Data),
		}
		s.mu.Lock()
		s.cache[key] = snap
		s.lastGood[key] = snap
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.BatchSnapshot), nil
}

// canonicalSet sorts and deduplicates so the same visible set in any order
// yields the same cache key.
func canonicalSet(visible []string) []string {
	seen := make(map[string]bool, len(visible))
	out := make([]string, 0, len(visible))
	for _, id := range visible {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func cacheKey(portfolioID string, canonical []string, includeSold bool) string {
	return portfolioID + "|" + strconv.FormatBool(includeSold) + "|" + strings.Join(canonical, ",")
}
