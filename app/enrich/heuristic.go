package enrich

import (
	"context"
	"strings"

	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

// Category keyword tables. First matching category in declaration order wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"technology", []string{"ai", "artificial intelligence", "machine learning", "tech"}},
	{"cryptocurrency", []string{"crypto", "bitcoin", "blockchain"}},
	{"environment", []string{"climate", "environment", "green"}},
	{"politics", []string{"politics", "election", "government"}},
	{"business", []string{"business", "economy", "market", "finance"}},
	{"health", []string{"health", "medical", "disease"}},
}

var positiveWords = []string{"breakthrough", "success", "growth", "positive", "achievement", "innovation"}
var negativeWords = []string{"crisis", "failure", "decline", "negative", "problem", "concern"}

const summaryMaxLen = 100

// Heuristic is the default deterministic enricher: keyword tables for
// category, coarse word lists for sentiment, truncation for summary.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Enrich(ctx context.Context, text string) (Result, error) {
	title, description, _ := strings.Cut(text, "\n")

	return Result{
		Category:  classify(text),
		Sentiment: sentiment(text),
		Summary:   summarize(title, description),
	}, nil
}

func classify(text string) string {
	textLower := strings.ToLower(text)

	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(textLower, kw) {
				return entry.category
			}
		}
	}
	return "general"
}

func sentiment(text string) string {
	textLower := strings.ToLower(text)

	positive := 0
	for _, word := range positiveWords {
		if strings.Contains(textLower, word) {
			positive++
		}
	}

	negative := 0
	for _, word := range negativeWords {
		if strings.Contains(textLower, word) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return feed.SentimentPositive
	case negative > positive:
		return feed.SentimentNegative
	default:
		return feed.SentimentNeutral
	}
}

// summarize truncates the description, falling back to the title when the
// description is too short to be worth truncating.
func summarize(title, description string) string {
	if runes := []rune(description); len(runes) > summaryMaxLen {
		return string(runes[:summaryMaxLen-3]) + "..."
	}
	return title
}
