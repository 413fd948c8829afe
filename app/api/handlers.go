package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fredkai/kaitech-news-intelligence/app/archive"
	"github.com/Fredkai/kaitech-news-intelligence/app/cache"
	"github.com/Fredkai/kaitech-news-intelligence/app/query"
)

// StateReporter exposes the aggregator's current pipeline stage.
type StateReporter interface {
	State() string
}

type Handler struct {
	svc         *query.Service
	store       cache.Store
	archive     *archive.Archive
	state       StateReporter
	sourceCount int
	cacheTTL    time.Duration
	version     string
}

func NewHandler(svc *query.Service, store cache.Store, arc *archive.Archive,
	state StateReporter, sourceCount int, cacheTTL time.Duration, version string) *Handler {
	return &Handler{
		svc:         svc,
		store:       store,
		archive:     arc,
		state:       state,
		sourceCount: sourceCount,
		cacheTTL:    cacheTTL,
		version:     version,
	}
}

// GetNews handles GET /api/news with optional category, limit and offset.
func (h *Handler) GetNews(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	limit := intQuery(c, "limit", query.ListDefaultLimit)
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	resp := h.svc.List(c.Request.Context(), category, limit, offset)
	c.JSON(http.StatusOK, resp)
}

// GetBreakingNews handles GET /api/news/breaking.
func (h *Handler) GetBreakingNews(c *gin.Context) {
	limit := intQuery(c, "limit", query.BreakingDefaultLimit)

	resp := h.svc.Breaking(c.Request.Context(), limit)
	c.JSON(http.StatusOK, resp)
}

// GetTrendingNews handles GET /api/news/trending.
func (h *Handler) GetTrendingNews(c *gin.Context) {
	limit := intQuery(c, "limit", query.TrendingDefaultLimit)

	minScore := query.TrendingDefaultMinScore
	if raw := c.Query("min_score"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			minScore = parsed
		}
	}

	resp := h.svc.Trending(c.Request.Context(), minScore, limit)
	c.JSON(http.StatusOK, resp)
}

// SearchNews handles GET /api/news/search. The q parameter is required and
// must be at least two characters after trimming.
func (h *Handler) SearchNews(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid search query",
			"message": "Query parameter 'q' must be at least 2 characters",
		})
		return
	}

	limit := intQuery(c, "limit", query.SearchDefaultLimit)

	resp := h.svc.Search(c.Request.Context(), q, limit)
	c.JSON(http.StatusOK, resp)
}

// GetCategories handles GET /api/news/categories.
func (h *Handler) GetCategories(c *gin.Context) {
	resp := h.svc.Categories(c.Request.Context())
	c.JSON(http.StatusOK, resp)
}

// RefreshNews handles POST /api/news/refresh. It invalidates the cache and
// reports whether a new aggregation cycle started.
func (h *Handler) RefreshNews(c *gin.Context) {
	started := h.svc.Refresh(c.Request.Context())

	status := "refresh started"
	if !started {
		status = "refresh already in progress"
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":    status,
		"started":   started,
		"timestamp": time.Now().UTC(),
	})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	cacheStatus := "connected"
	if err := h.store.Ping(ctx); err != nil {
		cacheStatus = "degraded"
	}

	archiveStatus := "disabled"
	if h.archive != nil {
		archiveStatus = "connected"
		if err := h.archive.Ping(ctx); err != nil {
			archiveStatus = "unreachable"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          h.version,
		"cache":            cacheStatus,
		"archive":          archiveStatus,
		"aggregator_state": h.state.State(),
		"source_count":     h.sourceCount,
		"cache_ttl":        h.cacheTTL.String(),
		"timestamp":        time.Now().UTC(),
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
