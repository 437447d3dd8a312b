package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"vertigo/internal/config"
	database "vertigo/internal/db"
	"vertigo/internal/slides"
	"vertigo/internal/storage"

	"vertigo/internal/api/handlers"
	"vertigo/internal/api/middleware"
)

type Server struct {
	cfg     *config.Config
	db      *database.Client
	storage *storage.Client
	deck    *slides.Deck
	hub     *handlers.CounterHub
	router  *gin.Engine
}

func New(cfg *config.Config, db *database.Client, storage *storage.Client, deck *slides.Deck) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode) // Set to Release for production
	}

	s := &Server{
		cfg:     cfg,
		db:      db,
		storage: storage,
		deck:    deck,
		hub:     handlers.NewCounterHub(),
		router:  gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	// SSE clients disconnect constantly; keep those out of the error log
	s.router.Use(middleware.SilentLogger())

	// CORS Configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

	// IMPORTANT: "Authorization" must be allowed so the frontend can send the JWT
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	secret := []byte(s.cfg.Server.JWTSecret)

	// 1. Initialize Modular Handlers
	authHandler := handlers.NewAuthHandler(s.db.DB, secret)
	feedHandler := handlers.NewFeedHandler(s.db.DB, s.storage, s.deck, s.cfg.Feed.PageSize)
	socialHandler := handlers.NewSocialHandler(s.db.DB, s.hub)
	entryHandler := handlers.NewEntryHandler(s.db.DB)

	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "vertigo"})
	})

	// API Group
	v1 := s.router.Group("/api/v1")
	{
		// ==========================================
		// PUBLIC ROUTES (No Token Required)
		// ==========================================
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/register", authHandler.Register)

		// The feed itself is public: restricted items still ship to
		// anonymous clients, just obscured and silenced there. Identity
		// only fills in the viewer's like state.
		v1.GET("/feed", middleware.OptionalAuth(secret), feedHandler.GetFeed)
		v1.GET("/entries/:id/comments", socialHandler.GetComments)
		v1.GET("/entries/:id/counters", socialHandler.GetEntryCounters)
		v1.GET("/counters", socialHandler.GetCounters)
		v1.GET("/counters/stream", socialHandler.StreamCounters)

		// ==========================================
		// PROTECTED ROUTES (JWT Token Required)
		// ==========================================
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(secret)) // Checks for valid JWT
		{
			protected.POST("/entries/:id/like", socialHandler.ToggleLike)
			protected.DELETE("/entries/:id/like", socialHandler.Unlike)
			protected.POST("/entries/:id/comments", socialHandler.CreateComment)

			// --- ADMIN ONLY (Catalog Management) ---
			protected.GET("/entries", middleware.RequireRole("admin"), entryHandler.GetEntries)
			protected.PUT("/entries/:id", middleware.RequireRole("admin"), entryHandler.UpdateEntry)
			protected.DELETE("/entries/:id", middleware.RequireRole("admin"), entryHandler.DeleteEntry)
		}
	}
}

// Hub exposes the counter hub so other processes (ingest, backfills) can
// push patches to connected clients.
func (s *Server) Hub() *handlers.CounterHub {
	return s.hub
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
