// Package query serves the read shapes over the current snapshot. Each shape
// keeps its own short-TTL derived cache entry; a cold read triggers a
// background aggregation cycle and returns an empty result immediately
// instead of blocking.
package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/cache"
	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

// Parameter bounds per read shape.
const (
	ListDefaultLimit     = 50
	ListMaxLimit         = 200
	BreakingDefaultLimit = 20
	BreakingMaxLimit     = 50
	TrendingDefaultLimit = 30
	TrendingMaxLimit     = 100
	SearchDefaultLimit   = 30
	SearchMaxLimit       = 100

	TrendingDefaultMinScore = 50.0
)

// Refresher triggers a background aggregation cycle; the boolean reports
// whether a new cycle actually started (false when coalesced).
type Refresher interface {
	Trigger() bool
}

// Response is the envelope shared by the list-shaped reads. Cached reports
// whether this exact derived view came from its own cache entry rather than
// being recomputed from the snapshot.
type Response struct {
	Articles  []feed.Item `json:"articles"`
	Total     int         `json:"total"`
	Cached    bool        `json:"cached"`
	Timestamp time.Time   `json:"timestamp"`
}

// CategoriesResponse maps category name to item count.
type CategoriesResponse struct {
	Categories      map[string]int `json:"categories"`
	TotalCategories int            `json:"totalCategories"`
	Timestamp       time.Time      `json:"timestamp"`
}

type Service struct {
	store     cache.Store
	refresher Refresher
	ttl       time.Duration
}

func NewService(store cache.Store, refresher Refresher, ttl time.Duration) *Service {
	return &Service{store: store, refresher: refresher, ttl: ttl}
}

// List returns snapshot items, optionally filtered by category (source or
// enriched), with offset/limit pagination.
func (s *Service) List(ctx context.Context, category string, limit, offset int) Response {
	limit = clampLimit(limit, ListDefaultLimit, ListMaxLimit)
	if offset < 0 {
		offset = 0
	}

	key := cache.ListKey(category, limit, offset)
	if resp, ok := s.getDerived(ctx, key); ok {
		return resp
	}

	snap, ok := s.snapshot(ctx)
	if !ok {
		return emptyResponse()
	}

	matched := snap.Articles
	if category != "" {
		matched = make([]feed.Item, 0, len(snap.Articles))
		for _, item := range snap.Articles {
			if strings.EqualFold(item.Category, category) || strings.EqualFold(item.EnrichedCategory, category) {
				matched = append(matched, item)
			}
		}
	}

	resp := Response{
		Articles:  paginate(matched, offset, limit),
		Total:     len(matched),
		Timestamp: time.Now().UTC(),
	}
	s.putDerived(ctx, key, resp, s.ttl/2)
	return resp
}

// Breaking returns the pre-published breaking tier, falling back to filtering
// the main snapshot when the tier key is absent.
func (s *Service) Breaking(ctx context.Context, limit int) Response {
	limit = clampLimit(limit, BreakingDefaultLimit, BreakingMaxLimit)

	key := cache.BreakingKey(limit)
	if resp, ok := s.getDerived(ctx, key); ok {
		return resp
	}

	var tier feed.Snapshot
	found, _ := s.store.Get(ctx, cache.KeyBreaking, &tier)
	if !found {
		snap, ok := s.snapshot(ctx)
		if !ok {
			return emptyResponse()
		}
		for _, item := range snap.Articles {
			if item.TrendingScore > 70 {
				tier.Articles = append(tier.Articles, item)
			}
		}
	}

	articles := tier.Articles
	if len(articles) > limit {
		articles = articles[:limit]
	}

	resp := Response{
		Articles:  articles,
		Total:     len(articles),
		Timestamp: time.Now().UTC(),
	}
	s.putDerived(ctx, key, resp, s.ttl/2)
	return resp
}

// Trending returns snapshot items with score >= minScore, highest first.
func (s *Service) Trending(ctx context.Context, minScore float64, limit int) Response {
	limit = clampLimit(limit, TrendingDefaultLimit, TrendingMaxLimit)
	if minScore < 0 || minScore > 100 {
		minScore = TrendingDefaultMinScore
	}

	key := cache.TrendingKey(minScore, limit)
	if resp, ok := s.getDerived(ctx, key); ok {
		return resp
	}

	snap, ok := s.snapshot(ctx)
	if !ok {
		return emptyResponse()
	}

	trending := make([]feed.Item, 0, len(snap.Articles))
	for _, item := range snap.Articles {
		if item.TrendingScore >= minScore {
			trending = append(trending, item)
		}
	}
	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].TrendingScore > trending[j].TrendingScore
	})
	if len(trending) > limit {
		trending = trending[:limit]
	}

	resp := Response{
		Articles:  trending,
		Total:     len(trending),
		Timestamp: time.Now().UTC(),
	}
	s.putDerived(ctx, key, resp, s.ttl/2)
	return resp
}

// Search matches q case-insensitively against title and description.
func (s *Service) Search(ctx context.Context, q string, limit int) Response {
	limit = clampLimit(limit, SearchDefaultLimit, SearchMaxLimit)

	key := cache.SearchKey(q, limit)
	if resp, ok := s.getDerived(ctx, key); ok {
		return resp
	}

	snap, ok := s.snapshot(ctx)
	if !ok {
		return emptyResponse()
	}

	qLower := strings.ToLower(q)
	results := make([]feed.Item, 0)
	for _, item := range snap.Articles {
		if strings.Contains(strings.ToLower(item.Title), qLower) ||
			strings.Contains(strings.ToLower(item.Description), qLower) {
			results = append(results, item)
			if len(results) == limit {
				break
			}
		}
	}

	resp := Response{
		Articles:  results,
		Total:     len(results),
		Timestamp: time.Now().UTC(),
	}
	// Search queries are the most varied; give them the shortest TTL
	s.putDerived(ctx, key, resp, s.ttl/4)
	return resp
}

// Categories counts snapshot items per category, preferring the enriched
// category and falling back to the source category.
func (s *Service) Categories(ctx context.Context) CategoriesResponse {
	resp := CategoriesResponse{
		Categories: make(map[string]int),
		Timestamp:  time.Now().UTC(),
	}

	snap, ok := s.snapshot(ctx)
	if !ok {
		return resp
	}

	for _, item := range snap.Articles {
		category := item.EnrichedCategory
		if category == "" {
			category = item.Category
		}
		if category == "" {
			category = "general"
		}
		resp.Categories[category]++
	}
	resp.TotalCategories = len(resp.Categories)

	return resp
}

// Refresh invalidates the news namespace and triggers a background cycle.
// The return value reports whether a new cycle started.
func (s *Service) Refresh(ctx context.Context) bool {
	if err := s.store.Invalidate(ctx, cache.Namespace); err != nil {
		slog.Warn("Refresh invalidation failed", "error", err)
	}
	return s.refresher.Trigger()
}

// snapshot loads the current snapshot. On a cold cache it kicks off a
// background aggregation cycle and reports absence; callers return an empty
// result instead of waiting.
func (s *Service) snapshot(ctx context.Context) (*feed.Snapshot, bool) {
	var snap feed.Snapshot
	found, _ := s.store.Get(ctx, cache.KeySnapshot, &snap)
	if !found {
		slog.Debug("Cold read, triggering background aggregation")
		s.refresher.Trigger()
		return nil, false
	}
	return &snap, true
}

func (s *Service) getDerived(ctx context.Context, key string) (Response, bool) {
	var resp Response
	found, _ := s.store.Get(ctx, key, &resp)
	if !found {
		return Response{}, false
	}
	resp.Cached = true
	return resp, true
}

func (s *Service) putDerived(ctx context.Context, key string, resp Response, ttl time.Duration) {
	// Best-effort; a degraded cache just means recomputing next request
	if err := s.store.Set(ctx, key, resp, ttl); err != nil {
		slog.Debug("Derived view write-back failed", "key", key, "error", err)
	}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func paginate(items []feed.Item, offset, limit int) []feed.Item {
	if offset >= len(items) {
		return []feed.Item{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func emptyResponse() Response {
	return Response{
		Articles:  []feed.Item{},
		Timestamp: time.Now().UTC(),
	}
}
