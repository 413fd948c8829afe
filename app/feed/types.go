package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Sentiment values assigned by enrichment.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Item is one normalized news article. Items are reconstructed fresh each
// aggregation cycle; they have no lifecycle outside their owning Snapshot.
type Item struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Body             string    `json:"body,omitempty"`
	URL              string    `json:"url"`
	Source           string    `json:"source"`
	Category         string    `json:"category"`
	EnrichedCategory string    `json:"enrichedCategory,omitempty"`
	Sentiment        string    `json:"sentiment"`
	Summary          string    `json:"summary,omitempty"`
	PublishedAt      time.Time `json:"publishedAt"`
	TrendingScore    float64   `json:"trendingScore"`
	Enriched         bool      `json:"enriched"`
	Language         string    `json:"language"`
}

// Snapshot is the complete output of one aggregation cycle. It is never
// mutated after publish; a new cycle replaces it wholesale.
type Snapshot struct {
	Articles    []Item    `json:"articles"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generatedAt"`
	SourceCount int       `json:"sourceCount"`
}

// ItemID derives a stable identity from the canonical URL.
func ItemID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}
