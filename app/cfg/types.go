package cfg

import "time"

type Cfg struct {
	// HTTP server
	Port string

	// Cache store
	RedisAddr string
	CacheTTL  int // seconds; also the aggregation cycle period

	// Persistent article mirror (disabled when empty)
	PostgresDSN string

	// Aggregation
	SourcesFile string
	UserAgent   string

	// Enrichment
	EnrichProvider string
	EnrichURL      string

	// API
	APIAccessKey string

	// Application metadata
	Debug   bool
	Version string
}

func (c *Cfg) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
