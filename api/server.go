package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/api/handlers"
	"github.com/OldStager01/alert-arbiter/api/middleware"
	"github.com/OldStager01/alert-arbiter/api/websocket"
	"github.com/OldStager01/alert-arbiter/internal/auth"
	"github.com/OldStager01/alert-arbiter/internal/metrics"
	"github.com/OldStager01/alert-arbiter/pkg/config"
	"github.com/OldStager01/alert-arbiter/pkg/database"
	"github.com/OldStager01/alert-arbiter/pkg/database/queries"
)

const maxBodyBytes = 1 << 16

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	db          *database.DB
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	arbiter     handlers.ArbiterService
}

// NewServer builds the status API. db may be nil when history is disabled.
func NewServer(cfg config.APIConfig, wsCfg *config.WebSocketConfig, db *database.DB, svc handlers.ArbiterService) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	duration := cfg.JWTDuration
	if duration <= 0 {
		duration = 24 * time.Hour
	}

	s := &Server{
		router:      gin.New(),
		config:      cfg,
		db:          db,
		authService: auth.NewService(cfg.JWTSecret, cfg.JWTIssuer, duration),
		wsHub:       websocket.NewHub(wsCfg),
		arbiter:     svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go s.wsHub.Run()

	s.wsBridge = websocket.NewEventBridge(s.wsHub, svc.SubscribeAllEvents())
	s.wsBridge.Start()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.CORS)))
	s.router.Use(middleware.RequestSizeLimit(maxBodyBytes))

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) setupRoutes() {
	var (
		health  *handlers.HealthHandler
		history *handlers.HistoryHandler
	)
	if s.db != nil {
		health = handlers.NewHealthHandler(s.db, s.arbiter)
		history = handlers.NewHistoryHandler(queries.NewAlertHistoryRepository(s.db), s.config.DefaultLimit, s.config.MaxLimit)
	} else {
		health = handlers.NewHealthHandler(nil, s.arbiter)
		history = handlers.NewHistoryHandler(nil, s.config.DefaultLimit, s.config.MaxLimit)
	}
	alertHandler := handlers.NewAlertHandler(s.arbiter)
	authHandler := handlers.NewAuthHandler(s.authService)

	s.router.GET("/health", health.Health)
	s.router.GET("/health/ready", health.Ready)
	s.router.GET("/health/live", health.Live)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub, s.greeting))

	s.router.GET("/events", alertHandler.ListEvents)
	s.router.GET("/events/:name", alertHandler.GetEvent)
	s.router.GET("/alert/current", alertHandler.Current)
	s.router.GET("/history", history.Recent)
	s.router.GET("/history/stats", history.Stats)

	engageLimiter := middleware.NewEndpointRateLimiter()
	engageLimiter.AddEndpoint("/engagement", 10, time.Minute)

	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.GET("/auth/whoami", authHandler.WhoAmI)
		protected.POST("/auth/refresh", authHandler.Refresh)

		protected.POST("/engagement",
			middleware.RequireRole(auth.RoleOperator),
			engageLimiter.Middleware(),
			alertHandler.Engage,
		)
	}
}

func (s *Server) greeting() *websocket.OutgoingMessage {
	sel, err := s.arbiter.CurrentSelection()
	if err != nil {
		return nil
	}
	return websocket.CurrentMessage(sel)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	idle := s.config.IdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  idle,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.wsBridge.Stop()
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

func (s *Server) AuthService() *auth.Service {
	return s.authService
}
