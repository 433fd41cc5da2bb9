// Package server exposes the council over HTTP: conversation CRUD,
// synchronous and streaming messaging, settings, and project analysis.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexusspace/llm-council/internal/config"
	"github.com/nexusspace/llm-council/internal/council"
	"github.com/nexusspace/llm-council/internal/fetcher"
	"github.com/nexusspace/llm-council/internal/reader"
	"github.com/nexusspace/llm-council/internal/storage"
	"github.com/nexusspace/llm-council/internal/webfetch"
)

var log = logrus.WithField("component", "server")

// Server wires the HTTP handlers to their collaborators. Everything is
// injected so tests can assemble a server around fakes and mock providers.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	settings storage.SettingsStore
	council  *council.Council
	reader   *reader.Reader
	fetcher  *fetcher.Fetcher
	webfetch *webfetch.Fetcher
}

// New builds a Server from explicit dependencies.
func New(cfg *config.Config, store storage.Store, settings storage.SettingsStore, c *council.Council, r *reader.Reader, f *fetcher.Fetcher, w *webfetch.Fetcher) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		settings: settings,
		council:  c,
		reader:   r,
		fetcher:  f,
		webfetch: w,
	}
}

// Router assembles the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	maxBody := s.cfg.MaxRequestBodySize
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
		c.Next()
	})

	allowed := s.cfg.CORSOrigins
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if len(allowed) > 0 {
				for _, allowedOrigin := range allowed {
					if origin == allowedOrigin {
						return true
					}
				}
				return false
			}
			// Development fallback: any localhost origin.
			return strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0")
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	router.GET("/", s.healthCheck)
	router.GET("/api/conversations", s.listConversations)
	router.POST("/api/conversations", s.createConversation)
	router.GET("/api/conversations/:id", s.getConversation)
	router.POST("/api/conversations/:id/message", s.sendMessage)
	router.POST("/api/conversations/:id/message/stream", s.sendMessageStream)
	router.GET("/api/settings", s.getSettings)
	router.POST("/api/settings", s.updateSettings)
	router.POST("/api/analyze-project", s.analyzeProject)
	router.POST("/api/fetch-url", s.fetchURL)

	return router
}

// Run starts the HTTP server on the configured address.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.ServerHost, s.cfg.ServerPort)
	log.WithField("addr", addr).Info("starting LLM Council backend")
	return s.Router().Run(addr)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "LLM Council API",
	})
}
