package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

const (
	// DefaultLimit bounds external enrichment cost per cycle; items beyond
	// it pass through unenriched.
	DefaultLimit = 30
	// DefaultPacing spaces consecutive enrichment calls to bound burst load
	// on the backing provider.
	DefaultPacing = 100 * time.Millisecond
)

// Runner applies an Enricher across a cycle's items with pacing, a per-cycle
// cap and per-item fault isolation.
type Runner struct {
	enricher Enricher
	limit    int
	pacing   time.Duration
}

func NewRunner(enricher Enricher) *Runner {
	return &Runner{
		enricher: enricher,
		limit:    DefaultLimit,
		pacing:   DefaultPacing,
	}
}

// NewRunnerWithOptions allows tests and special deployments to tune the cap
// and pacing.
func NewRunnerWithOptions(enricher Enricher, limit int, pacing time.Duration) *Runner {
	return &Runner{enricher: enricher, limit: limit, pacing: pacing}
}

// Apply enriches items in place, in current order, up to the cap. A failure
// on one item leaves that item with default enrichment and does not affect
// any other item or abort the cycle.
func (r *Runner) Apply(ctx context.Context, items []feed.Item) []feed.Item {
	limit := r.limit
	if limit > len(items) {
		limit = len(items)
	}

	failed := 0
	for i := 0; i < limit; i++ {
		if i > 0 && r.pacing > 0 {
			select {
			case <-ctx.Done():
				slog.Debug("Enrichment interrupted", "enriched", i, "remaining", limit-i)
				return items
			case <-time.After(r.pacing):
			}
		}

		item := &items[i]
		result, err := r.enricher.Enrich(ctx, ComposeText(item.Title, item.Description))
		if err != nil {
			failed++
			slog.Warn("Item enrichment failed", "url", item.URL, "error", err)
			item.Enriched = false
			item.Sentiment = feed.SentimentNeutral
			continue
		}

		result = normalize(result)
		item.EnrichedCategory = result.Category
		item.Sentiment = result.Sentiment
		item.Summary = result.Summary
		item.Enriched = true
	}

	if failed > 0 {
		slog.Info("Enrichment pass completed with failures", "attempted", limit, "failed", failed)
	}

	return items
}
