package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP engine with all routes configured.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS for browser clients
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	{
		api.GET("/news", handler.GetNews)
		api.GET("/news/breaking", handler.GetBreakingNews)
		api.GET("/news/trending", handler.GetTrendingNews)
		api.GET("/news/search", handler.SearchNews)
		api.GET("/news/categories", handler.GetCategories)

		refresh := api.Group("")
		if apiAccessKey != "" {
			refresh.Use(authMiddleware(apiAccessKey))
			slog.Info("Refresh endpoint enabled with authentication")
		}
		refresh.POST("/news/refresh", handler.RefreshNews)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "KaiTech News Intelligence",
			"status":  "healthy",
			"endpoints": map[string]string{
				"health":     "/health",
				"news":       "/api/news",
				"breaking":   "/api/news/breaking",
				"trending":   "/api/news/trending",
				"search":     "/api/news/search",
				"categories": "/api/news/categories",
				"refresh":    "/api/news/refresh (POST)",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware gates mutating endpoints behind an API key.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
