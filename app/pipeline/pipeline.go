// Package pipeline merges the per-source fetch results of one aggregation
// cycle into a single deduplicated, scored, ordered item list.
package pipeline

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
)

var trendingKeywords = []string{"breaking", "urgent", "live", "exclusive", "alert"}

const keywordWeight = 20.0

// Merge combines the fetch results of all sources, drops items without a
// canonical URL, deduplicates by URL (first seen wins, in source order),
// assigns trending scores and sorts by publish time, newest first.
func Merge(batches [][]feed.Item, now time.Time) []feed.Item {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}

	merged := make([]feed.Item, 0, total)
	seen := make(map[string]struct{}, total)
	invalid := 0

	for _, batch := range batches {
		for _, item := range batch {
			if item.URL == "" {
				invalid++
				continue
			}
			if _, ok := seen[item.URL]; ok {
				continue
			}
			seen[item.URL] = struct{}{}

			item.TrendingScore = Score(item.Title, item.PublishedAt, now)
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})

	if invalid > 0 {
		slog.Debug("Dropped items without canonical URL", "count", invalid)
	}

	return merged
}

// Score computes the 0-100 trending score: recency decay (2 points per hour
// since publish) plus 20 points per trending keyword in the title.
func Score(title string, publishedAt, now time.Time) float64 {
	hours := now.Sub(publishedAt).Hours()

	recency := 100 - hours*2
	if recency < 0 {
		recency = 0
	}

	keyword := 0.0
	titleLower := strings.ToLower(title)
	for _, kw := range trendingKeywords {
		if strings.Contains(titleLower, kw) {
			keyword += keywordWeight
		}
	}

	score := recency + keyword
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
