package main

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"offer-aggregator-api/internal/clients"
	"offer-aggregator-api/internal/config"
	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
	"offer-aggregator-api/internal/services"
	"offer-aggregator-api/internal/storage"
	"offer-aggregator-api/pkg/cache"
	"offer-aggregator-api/pkg/logging"
)

var (
	rateLimiters = make(map[string]*rate.Limiter)
	rateMutex    = &sync.RWMutex{}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logging.Setup(cfg.Log.Level, cfg.Log.File)

	favorites, err := storage.OpenFavorites(cfg.CacheDir)
	if err != nil {
		log.Fatalf("Failed to open favorites store: %v", err)
	}
	offerCache := storage.NewOfferCache(cfg.CacheDir)

	client := clients.NewSquidClient(cfg.API.BaseURL, cfg.API.RequestsPerSecond, cfg.API.Burst, log)
	offerService := services.NewOfferService(client, favorites, offerCache, log)
	redisCache := cache.NewRedisCache(cfg.Redis, log)
	searchService := services.NewSearchService(offerService, redisCache, log)

	r := gin.Default()

	// CORS for the local frontend.
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Request ID + timing.
	r.Use(func(c *gin.Context) {
		requestID := fmt.Sprintf("%d", time.Now().UnixNano())
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		c.Next()
		log.WithFields(logging.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"duration":   time.Since(start).String(),
			"status":     c.Writer.Status(),
		}).Info("request completed")
	})

	r.Use(rateLimitMiddleware())

	r.GET("/health", func(c *gin.Context) {
		health := gin.H{
			"status":  "healthy",
			"service": "offer-aggregator-api",
			"version": "1.0.0",
		}

		if redisCache.IsAvailable() {
			health["cache"] = "redis connected"
		} else {
			health["cache"] = "redis unavailable"
		}

		c.JSON(http.StatusOK, health)
	})

	// Known dealers, in registry order.
	r.GET("/dealers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"dealers": dealers.All(),
			"total":   len(dealers.All()),
		})
	})

	r.GET("/favorites", func(c *gin.Context) {
		favs := favorites.List()
		c.JSON(http.StatusOK, gin.H{
			"favorites": favs,
			"total":     len(favs),
		})
	})

	r.POST("/favorites/:dealer", func(c *gin.Context) {
		dealer, ok := parseDealerParam(c)
		if !ok {
			return
		}

		changed, err := favorites.Add(dealer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "persistence_failed",
				Code:    http.StatusInternalServerError,
				Message: "favorite added for this run but could not be saved",
				Details: err.Error(),
			})
			return
		}
		if changed {
			if err := redisCache.FlushSearch(c.Request.Context()); err != nil {
				log.WithError(err).Warn("failed to flush search response cache")
			}
		}

		c.JSON(http.StatusOK, gin.H{"dealer": dealer, "changed": changed})
	})

	r.DELETE("/favorites/:dealer", func(c *gin.Context) {
		dealer, ok := parseDealerParam(c)
		if !ok {
			return
		}

		changed, err := favorites.Remove(dealer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "persistence_failed",
				Code:    http.StatusInternalServerError,
				Message: "favorite removed for this run but could not be saved",
				Details: err.Error(),
			})
			return
		}
		if changed {
			if err := redisCache.FlushSearch(c.Request.Context()); err != nil {
				log.WithError(err).Warn("failed to flush search response cache")
			}
		}

		c.JSON(http.StatusOK, gin.H{"dealer": dealer, "changed": changed})
	})

	// Full offer set for the favorite dealers, cheapest per unit first
	// unless told otherwise.
	r.GET("/offers", func(c *gin.Context) {
		sortField := c.DefaultQuery("sort", "cost")
		sortOrder := c.DefaultQuery("order", "asc")

		results, err := searchService.Search(c.Request.Context(), nil, false, sortField, sortOrder)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "offers_failed",
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, results)
	})

	// Term search across the offer set. Repeated q params union their
	// matches; by_dealer switches terms from name substrings to dealer
	// names.
	r.GET("/search", func(c *gin.Context) {
		terms := c.QueryArray("q")
		byDealer := c.Query("by_dealer") == "true"
		sortField := c.Query("sort")
		sortOrder := c.DefaultQuery("order", "asc")

		results, err := searchService.Search(c.Request.Context(), terms, byDealer, sortField, sortOrder)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "search_failed",
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, results)
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, redisCache.GetStats(c.Request.Context()))
	})

	r.DELETE("/cache/flush", func(c *gin.Context) {
		if !redisCache.IsAvailable() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "cache not available",
			})
			return
		}

		if err := redisCache.FlushSearch(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to flush cache",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "cache flushed successfully",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Offer Aggregator API",
			"version":     "1.0.0",
			"description": "Aggregates promotional offers from Danish retail chains and compares cost per unit",
			"features":    []string{"Per-dealer concurrent acquisition", "Unit-cost normalization", "Daily offer cache", "Favorites", "Term search with dedup"},
			"endpoints": map[string]string{
				"GET /offers":               "Current offer set for the favorite dealers",
				"GET /search":               "Search offers by name terms or dealer names",
				"GET /dealers":              "List known dealers",
				"GET /favorites":            "List favorite dealers",
				"POST /favorites/:dealer":   "Add a favorite",
				"DELETE /favorites/:dealer": "Remove a favorite",
				"GET /health":               "Health check",
				"GET /cache/stats":          "Response cache statistics",
			},
		})
	})

	log.Infof("Starting server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// parseDealerParam resolves the :dealer path segment against the
// registry, replying 400 with the known dealer list on unknown input.
func parseDealerParam(c *gin.Context) (dealers.Dealer, bool) {
	dealer, err := dealers.Parse(c.Param("dealer"))
	if err != nil {
		if errors.Is(err, dealers.ErrUnknownDealer) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "unknown_dealer",
				"message":       err.Error(),
				"known_dealers": dealers.All(),
			})
		} else {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		return "", false
	}
	return dealer, true
}

func getRateLimiter(ip string) *rate.Limiter {
	rateMutex.RLock()
	limiter, exists := rateLimiters[ip]
	rateMutex.RUnlock()

	if !exists {
		rateMutex.Lock()
		limiter = rate.NewLimiter(rate.Limit(10), 20) // 10 req/sec, burst 20
		rateLimiters[ip] = limiter
		rateMutex.Unlock()
	}

	return limiter
}

func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := getRateLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests from your IP",
				"retry_after": "1 second",
				"ip":          ip,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
