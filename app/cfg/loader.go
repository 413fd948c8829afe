package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`

	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the cache store (in-memory store when empty)"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Snapshot cache TTL and aggregation cycle period in seconds"`

	PostgresDSN string `long:"postgres-dsn" env:"POSTGRES_DSN" description:"Postgres DSN for the article mirror (optional)"`

	SourcesFile string `long:"sources-file" env:"SOURCES_FILE" description:"YAML file with news source descriptors (built-in set when empty)"`
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"KaiTech News Bot/2.0" description:"User agent string for feed requests"`

	EnrichProvider string `long:"enrich-provider" env:"ENRICH_PROVIDER" default:"heuristic" description:"Enrichment provider (heuristic, remote)"`
	EnrichURL      string `long:"enrich-url" env:"ENRICH_URL" description:"Endpoint of the remote enrichment service"`

	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key protecting the refresh endpoint (optional)"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Best-effort .env autoload; absence is not an error
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:           raw.Port,
		RedisAddr:      raw.RedisAddr,
		CacheTTL:       raw.CacheTTL,
		PostgresDSN:    raw.PostgresDSN,
		SourcesFile:    raw.SourcesFile,
		UserAgent:      raw.UserAgent,
		EnrichProvider: raw.EnrichProvider,
		EnrichURL:      raw.EnrichURL,
		APIAccessKey:   raw.APIAccessKey,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %d", cfg.CacheTTL)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
