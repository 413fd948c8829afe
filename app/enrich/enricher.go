// Package enrich adds category, sentiment and summary metadata to items.
// Enrichment is a pluggable capability: the default heuristic classifier and
// the remote model-backed provider are interchangeable, selected at
// construction time.
package enrich

import (
	"context"

	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

// Result is the outcome of enriching one piece of text.
type Result struct {
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
	Summary   string `json:"summary"`
}

// Enricher is the single enrichment capability.
type Enricher interface {
	Enrich(ctx context.Context, text string) (Result, error)
}

// ComposeText builds the enrichment input for an item: the title on the
// first line, the description after it. Providers may rely on this layout.
func ComposeText(title, description string) string {
	if description == "" {
		return title
	}
	return title + "\n" + description
}

// normalize fills defaults so a provider can never hand back an item-breaking
// result.
func normalize(r Result) Result {
	if r.Category == "" {
		r.Category = "general"
	}
	switch r.Sentiment {
	case feed.SentimentPositive, feed.SentimentNegative, feed.SentimentNeutral:
	default:
		r.Sentiment = feed.SentimentNeutral
	}
	return r
}
