package query

import (
	"context"
	"testing"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/cache"
	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

type stubRefresher struct {
	triggers int
}

func (r *stubRefresher) Trigger() bool {
	r.triggers++
	return true
}

func seedSnapshot(t *testing.T, store cache.Store, items []feed.Item) {
	t.Helper()
	snap := feed.Snapshot{
		Articles:    items,
		Total:       len(items),
		GeneratedAt: time.Now().UTC(),
		SourceCount: 2,
	}
	if err := store.Set(context.Background(), cache.KeySnapshot, snap, time.Minute); err != nil {
		t.Fatal(err)
	}
}

func testItems() []feed.Item {
	now := time.Now().UTC()
	return []feed.Item{
		{ID: "1", Title: "Climate breakthrough announced", Description: "Scientists report progress", URL: "https://example.com/1", Source: "BBC News", Category: "world", EnrichedCategory: "environment", Sentiment: feed.SentimentPositive, PublishedAt: now, TrendingScore: 95},
		{ID: "2", Title: "Quiet council meeting", Description: "Routine agenda", URL: "https://example.com/2", Source: "CNN", Category: "world", Sentiment: feed.SentimentNeutral, PublishedAt: now.Add(-time.Hour), TrendingScore: 60},
		{ID: "3", Title: "New framework released", Description: "Developers rejoice", URL: "https://example.com/3", Source: "TechCrunch", Category: "technology", EnrichedCategory: "technology", Sentiment: feed.SentimentPositive, PublishedAt: now.Add(-2 * time.Hour), TrendingScore: 40},
	}
}

func newTestService(t *testing.T) (*Service, *cache.Memory, *stubRefresher) {
	t.Helper()
	store := cache.NewMemory()
	refresher := &stubRefresher{}
	return NewService(store, refresher, 5*time.Minute), store, refresher
}

func TestListReturnsSnapshotItems(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.List(context.Background(), "", 0, 0)
	if resp.Total != 3 || len(resp.Articles) != 3 {
		t.Fatalf("expected all 3 items, got total=%d len=%d", resp.Total, len(resp.Articles))
	}
	if resp.Cached {
		t.Error("first read should be recomputed, not served from a derived entry")
	}
}

func TestListSecondReadServedFromDerivedCache(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	svc.List(context.Background(), "", 0, 0)
	resp := svc.List(context.Background(), "", 0, 0)
	if !resp.Cached {
		t.Error("second identical read should come from the derived cache entry")
	}
}

func TestListCategoryFilterMatchesSourceAndEnriched(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.List(context.Background(), "environment", 0, 0)
	if resp.Total != 1 || resp.Articles[0].ID != "1" {
		t.Errorf("enriched category filter failed: %+v", resp)
	}

	resp = svc.List(context.Background(), "world", 0, 0)
	if resp.Total != 2 {
		t.Errorf("source category filter should match 2 items, got %d", resp.Total)
	}
}

func TestListPagination(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.List(context.Background(), "", 1, 1)
	if len(resp.Articles) != 1 || resp.Articles[0].ID != "2" {
		t.Errorf("unexpected page: %+v", resp.Articles)
	}
	if resp.Total != 3 {
		t.Errorf("total should report the filtered set size, got %d", resp.Total)
	}

	resp = svc.List(context.Background(), "", 10, 100)
	if len(resp.Articles) != 0 {
		t.Errorf("offset beyond the set should return no items, got %d", len(resp.Articles))
	}
}

func TestLimitClamping(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	// Oversized limits clamp to the shape's maximum; derived keys must use
	// the clamped value so equivalent requests share an entry.
	svc.List(context.Background(), "", 9999, 0)

	var derived Response
	found, _ := store.Get(context.Background(), cache.ListKey("", ListMaxLimit, 0), &derived)
	if !found {
		t.Error("derived entry should be keyed by the clamped limit")
	}
}

func TestBreakingServedFromTier(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	tier := feed.Snapshot{
		Articles: []feed.Item{testItems()[0]},
		Total:    1,
	}
	if err := store.Set(context.Background(), cache.KeyBreaking, tier, time.Minute); err != nil {
		t.Fatal(err)
	}

	resp := svc.Breaking(context.Background(), 0)
	if resp.Total != 1 || resp.Articles[0].ID != "1" {
		t.Errorf("expected the tier item, got %+v", resp.Articles)
	}
}

func TestBreakingFallsBackToSnapshotFilter(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.Breaking(context.Background(), 0)
	if resp.Total != 1 || resp.Articles[0].TrendingScore <= 70 {
		t.Errorf("fallback filter should keep only score > 70: %+v", resp.Articles)
	}
}

func TestTrendingFiltersAndSortsByScore(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.Trending(context.Background(), 50, 0)
	if resp.Total != 2 {
		t.Fatalf("expected 2 items with score >= 50, got %d", resp.Total)
	}
	if resp.Articles[0].TrendingScore < resp.Articles[1].TrendingScore {
		t.Error("trending must be sorted by score descending")
	}

	resp = svc.Trending(context.Background(), 90, 0)
	if resp.Total != 1 || resp.Articles[0].ID != "1" {
		t.Errorf("minScore 90 should keep one item, got %+v", resp.Articles)
	}
}

func TestSearchMatchesTitleAndDescription(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.Search(context.Background(), "climate", 0)
	if resp.Total != 1 || resp.Articles[0].ID != "1" {
		t.Errorf("search by title failed: %+v", resp.Articles)
	}

	resp = svc.Search(context.Background(), "AGENDA", 0)
	if resp.Total != 1 || resp.Articles[0].ID != "2" {
		t.Errorf("case-insensitive description search failed: %+v", resp.Articles)
	}

	resp = svc.Search(context.Background(), "nonexistent term", 0)
	if resp.Total != 0 || resp.Articles == nil {
		t.Errorf("absent term should return an empty list, not nil or error: %+v", resp)
	}
}

func TestCategoriesCountsWithFallback(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedSnapshot(t, store, testItems())

	resp := svc.Categories(context.Background())
	want := map[string]int{"environment": 1, "world": 1, "technology": 1}
	if resp.TotalCategories != 3 {
		t.Fatalf("expected 3 categories, got %d", resp.TotalCategories)
	}
	for category, count := range want {
		if resp.Categories[category] != count {
			t.Errorf("category %s = %d, want %d", category, resp.Categories[category], count)
		}
	}
}

func TestColdReadsReturnEmptyAndTriggerRefresh(t *testing.T) {
	svc, _, refresher := newTestService(t)
	ctx := context.Background()

	if resp := svc.List(ctx, "", 0, 0); resp.Total != 0 || resp.Articles == nil {
		t.Errorf("cold list should be empty, not nil: %+v", resp)
	}
	if resp := svc.Breaking(ctx, 0); resp.Total != 0 {
		t.Errorf("cold breaking should be empty: %+v", resp)
	}
	if resp := svc.Trending(ctx, 50, 0); resp.Total != 0 {
		t.Errorf("cold trending should be empty: %+v", resp)
	}
	if resp := svc.Search(ctx, "anything", 0); resp.Total != 0 {
		t.Errorf("cold search should be empty: %+v", resp)
	}
	if resp := svc.Categories(ctx); len(resp.Categories) != 0 {
		t.Errorf("cold categories should be empty: %+v", resp)
	}

	if refresher.triggers == 0 {
		t.Error("cold reads must trigger a background aggregation cycle")
	}
}

func TestRefreshInvalidatesNamespace(t *testing.T) {
	svc, store, refresher := newTestService(t)
	seedSnapshot(t, store, testItems())

	// Populate a derived entry, then refresh.
	svc.List(context.Background(), "", 0, 0)

	svc.Refresh(context.Background())
	if refresher.triggers != 1 {
		t.Errorf("refresh should trigger a cycle, got %d triggers", refresher.triggers)
	}

	var snap feed.Snapshot
	if found, _ := store.Get(context.Background(), cache.KeySnapshot, &snap); found {
		t.Error("refresh should invalidate the snapshot key")
	}
	var derived Response
	if found, _ := store.Get(context.Background(), cache.ListKey("", ListDefaultLimit, 0), &derived); found {
		t.Error("refresh should invalidate derived entries")
	}
}
