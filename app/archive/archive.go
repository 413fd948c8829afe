// Package archive maintains a passive durable mirror of published items in
// Postgres. It is written best-effort after each publish and never read by
// the aggregation or query paths.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Article struct {
	ID               string    `gorm:"primaryKey;size:64"`
	Title            string    `gorm:"size:512;index"`
	Description      string    `gorm:"type:text"`
	Body             string    `gorm:"type:text"`
	URL              string    `gorm:"size:1024;uniqueIndex"`
	Source           string    `gorm:"size:128;index"`
	Category         string    `gorm:"size:64;index"`
	EnrichedCategory string    `gorm:"size:64;index"`
	Sentiment        string    `gorm:"size:16"`
	Summary          string    `gorm:"type:text"`
	PublishedAt      time.Time `gorm:"index"`
	TrendingScore    float64   `gorm:"index"`
	Enriched         bool
	Language         string `gorm:"size:16"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Archive struct {
	db *gorm.DB
}

func Open(dsn string) (*Archive, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if err := db.AutoMigrate(&Article{}); err != nil {
		return nil, fmt.Errorf("failed to migrate articles table: %w", err)
	}

	return &Archive{db: db}, nil
}

// SaveSnapshot mirrors the items of a published snapshot, idempotent on URL.
// Existing rows get their volatile fields refreshed.
func (a *Archive) SaveSnapshot(ctx context.Context, snap *feed.Snapshot) error {
	if a == nil {
		return nil
	}

	saved := 0
	for _, item := range snap.Articles {
		row := articleFromItem(item)

		err := a.db.WithContext(ctx).Where("url = ?", item.URL).FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to save article %s: %w", item.URL, err)
		}

		err = a.db.WithContext(ctx).Model(&row).Updates(map[string]any{
			"title":             item.Title,
			"description":       item.Description,
			"enriched_category": item.EnrichedCategory,
			"sentiment":         item.Sentiment,
			"summary":           item.Summary,
			"trending_score":    item.TrendingScore,
			"enriched":          item.Enriched,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to refresh article %s: %w", item.URL, err)
		}
		saved++
	}

	slog.Debug("Snapshot mirrored to archive", "articles", saved)
	return nil
}

// Ping reports archive connectivity for health checks.
func (a *Archive) Ping(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("archive not configured")
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func articleFromItem(item feed.Item) Article {
	return Article{
		ID:               item.ID,
		Title:            item.Title,
		Description:      item.Description,
		Body:             item.Body,
		URL:              item.URL,
		Source:           item.Source,
		Category:         item.Category,
		EnrichedCategory: item.EnrichedCategory,
		Sentiment:        item.Sentiment,
		Summary:          item.Summary,
		PublishedAt:      item.PublishedAt,
		TrendingScore:    item.TrendingScore,
		Enriched:         item.Enriched,
		Language:         item.Language,
	}
}
