package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/sources"
	"github.com/mmcdole/gofeed"
)

const (
	fetchTimeout       = 10 * time.Second
	maxEntriesPerFeed  = 15
	maxFeedBytes int64 = 5 << 20
)

// Fetcher retrieves and parses one feed source into normalized items.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewFetcher(userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: fetchTimeout},
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
	}
}

// Run fetches a single source. It never fails upward: any retrieval or parse
// error is logged and converted into an empty result, so one bad source can
// only reduce coverage.
func (f *Fetcher) Run(ctx context.Context, src sources.Source) []Item {
	items, err := f.fetch(ctx, src)
	if err != nil {
		slog.Warn("Source fetch failed", "source", src.Name, "error", err)
		return nil
	}

	slog.Debug("Source fetched", "source", src.Name, "items", len(items))
	return items
}

func (f *Fetcher) fetch(ctx context.Context, src sources.Source) ([]Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", src.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	language := "en"
	if parsed.Language != "" {
		language = parsed.Language
	}

	entries := parsed.Items
	if len(entries) > maxEntriesPerFeed {
		entries = entries[:maxEntriesPerFeed]
	}

	now := time.Now().UTC()
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		item, ok := f.normalizeEntry(entry, src, language, now)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// normalizeEntry converts one feed entry into an Item. Entries without both a
// URL and a title are discarded.
func (f *Fetcher) normalizeEntry(entry *gofeed.Item, src sources.Source, language string, now time.Time) (Item, bool) {
	link := strings.TrimSpace(entry.Link)
	title := strings.TrimSpace(entry.Title)
	if link == "" || title == "" {
		return Item{}, false
	}

	publishedAt := now
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed.UTC()
	}

	return Item{
		ID:          ItemID(link),
		Title:       title,
		Description: strings.TrimSpace(entry.Description),
		Body:        strings.TrimSpace(entry.Content),
		URL:         link,
		Source:      src.Name,
		Category:    src.Category,
		Sentiment:   SentimentNeutral,
		PublishedAt: publishedAt,
		Language:    language,
	}, true
}
