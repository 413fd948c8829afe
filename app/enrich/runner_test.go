package enrich

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

// flakyEnricher fails on selected calls and records which texts it saw.
type flakyEnricher struct {
	failOn map[int]bool
	calls  int
	seen   []string
}

func (f *flakyEnricher) Enrich(ctx context.Context, text string) (Result, error) {
	call := f.calls
	f.calls++
	f.seen = append(f.seen, text)

	if f.failOn[call] {
		return Result{}, fmt.Errorf("simulated enrichment failure on call %d", call)
	}
	return Result{Category: "technology", Sentiment: feed.SentimentPositive, Summary: "s"}, nil
}

func makeItems(n int) []feed.Item {
	items := make([]feed.Item, n)
	for i := range items {
		items[i] = feed.Item{
			Title:       fmt.Sprintf("Item %d", i),
			Description: fmt.Sprintf("Description %d", i),
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Sentiment:   feed.SentimentNeutral,
		}
	}
	return items
}

func TestRunnerFailureIsolation(t *testing.T) {
	enricher := &flakyEnricher{failOn: map[int]bool{1: true}}
	runner := NewRunnerWithOptions(enricher, DefaultLimit, 0)

	items := runner.Apply(context.Background(), makeItems(3))

	if !items[0].Enriched || !items[2].Enriched {
		t.Error("failure on item 1 must not affect items 0 and 2")
	}
	if items[1].Enriched {
		t.Error("failed item must be marked unenriched")
	}
	if items[1].Sentiment != feed.SentimentNeutral {
		t.Errorf("failed item should keep neutral sentiment, got %q", items[1].Sentiment)
	}
	if items[0].EnrichedCategory != "technology" {
		t.Errorf("successful item should carry enriched category, got %q", items[0].EnrichedCategory)
	}
}

func TestRunnerCapsEnrichedItems(t *testing.T) {
	enricher := &flakyEnricher{}
	runner := NewRunnerWithOptions(enricher, 5, 0)

	items := runner.Apply(context.Background(), makeItems(8))

	for i := 0; i < 5; i++ {
		if !items[i].Enriched {
			t.Errorf("item %d within cap should be enriched", i)
		}
	}
	for i := 5; i < 8; i++ {
		if items[i].Enriched {
			t.Errorf("item %d beyond cap must pass through unenriched", i)
		}
	}
	if enricher.calls != 5 {
		t.Errorf("expected exactly 5 enrichment calls, got %d", enricher.calls)
	}
}

func TestRunnerAppliesPacing(t *testing.T) {
	enricher := &flakyEnricher{}
	pacing := 20 * time.Millisecond
	runner := NewRunnerWithOptions(enricher, DefaultLimit, pacing)

	start := time.Now()
	runner.Apply(context.Background(), makeItems(4))
	elapsed := time.Since(start)

	// 3 gaps between 4 calls
	if elapsed < 3*pacing {
		t.Errorf("expected at least %v of pacing, finished in %v", 3*pacing, elapsed)
	}
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	enricher := &flakyEnricher{}
	runner := NewRunnerWithOptions(enricher, DefaultLimit, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := runner.Apply(ctx, makeItems(5))

	// First item runs before the first pacing wait; the rest are skipped.
	if enricher.calls != 1 {
		t.Errorf("expected 1 call before cancellation took effect, got %d", enricher.calls)
	}
	if len(items) != 5 {
		t.Errorf("all items must survive cancellation, got %d", len(items))
	}
}

func TestRunnerComposesTitleAndDescription(t *testing.T) {
	enricher := &flakyEnricher{}
	runner := NewRunnerWithOptions(enricher, DefaultLimit, 0)

	runner.Apply(context.Background(), makeItems(1))

	if len(enricher.seen) != 1 || enricher.seen[0] != "Item 0\nDescription 0" {
		t.Errorf("unexpected enrichment input: %q", enricher.seen)
	}
}
