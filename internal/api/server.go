// Package api is the HTTP control plane: start a scrape batch, watch its
// status, list scrapers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shopify-catalog/internal/jobs"
	"shopify-catalog/internal/types"
)

// ScrapeRequest is the body of POST /api/scrape
type ScrapeRequest struct {
	UserEmail  string   `json:"user_email"`
	ScraperIDs []string `json:"scraper_ids"`
}

// APIResponse represents the response from the API
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Scrapers is the set of configured scraper ids
type Scrapers interface {
	StoreIDs() []string
	HasStore(id string) bool
}

// Server holds the API server dependencies
type Server struct {
	manager  *jobs.Manager
	scrapers Scrapers
	logger   types.Logger
}

// NewServer creates a new API server
func NewServer(manager *jobs.Manager, scrapers Scrapers, logger types.Logger) *Server {
	return &Server{manager: manager, scrapers: scrapers, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(s.requestLogger(), gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.Errorf("Panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		s.sendError(c, "internal server error", http.StatusInternalServerError)
	}), cors())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/scrape", s.handleScrape)
	api.GET("/scrape/status", s.handleStatus)
	api.GET("/scrapers", s.handleScrapers)

	router.NoRoute(func(c *gin.Context) {
		s.sendError(c, "not found", http.StatusNotFound)
	})
	return router
}

// handleScrape starts a batch. Without scraper_ids every configured
// scraper runs.
func (s *Server) handleScrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.sendError(c, "Invalid request body", http.StatusBadRequest)
		return
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.UserEmail))
	if err != nil {
		s.sendError(c, "user_email must be a valid email address", http.StatusBadRequest)
		return
	}

	ids := make([]string, 0, len(req.ScraperIDs))
	for _, id := range req.ScraperIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !s.scrapers.HasStore(id) {
			s.sendError(c, fmt.Sprintf("unknown scraper: %s", id), http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		ids = s.scrapers.StoreIDs()
	}
	if len(ids) == 0 {
		s.sendError(c, "No scrapers configured", http.StatusBadRequest)
		return
	}

	job, err := s.manager.Start(jobs.Request{UserEmail: addr.Address, StoreIDs: ids})
	if errors.Is(err, jobs.ErrBatchRunning) {
		s.sendError(c, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Errorf("Failed to start batch: %v", err)
		s.sendError(c, "failed to start batch", http.StatusInternalServerError)
		return
	}

	s.logger.Infof("API request started batch %s for scrapers: %v", job.ID, ids)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: job})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: s.manager.Status()})
}

func (s *Server) handleScrapers(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{"scrapers": s.scrapers.StoreIDs()}})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// sendError sends an error response
func (s *Server) sendError(c *gin.Context, message string, statusCode int) {
	c.AbortWithStatusJSON(statusCode, APIResponse{Success: false, Error: message})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugf("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
