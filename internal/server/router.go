// Package server assembles the HTTP surface.
package server

import (
	"database/sql"
	"net/http"

	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/catalog"
	"github.com/binhbb2204/nocturne/internal/editor"
	"github.com/binhbb2204/nocturne/internal/events"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/health"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/internal/reader"
	"github.com/binhbb2204/nocturne/internal/websocket"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	DB          *sql.DB
	Gateway     gateway.Gateway
	Identity    *identity.Provider
	Bus         *events.Bus
	FrontendURL string
	Log         *logger.Logger
}

// Server owns the router and the long-lived sessions behind it.
type Server struct {
	Router    *gin.Engine
	editor    *editor.Handler
	websocket *websocket.Server
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logger.GetLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{opts.FrontendURL}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.ExposeHeaders = []string{"Content-Length"}
	config.AllowCredentials = true
	r.Use(cors.New(config))

	identify := auth.Identify(opts.Identity)

	var breaker health.BreakerState
	if b, ok := opts.Gateway.(health.BreakerState); ok {
		breaker = b
	}
	healthHandler := health.NewHandler(opts.DB, breaker)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", metrics.NewHandler().Metrics)

	authHandler := auth.NewHandler(opts.Identity)
	authGroup := r.Group("/auth", identify)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", authHandler.Me)
	}

	svc := catalog.NewService(opts.Gateway, log)
	var notifier editor.Notifier
	if opts.Bus != nil {
		svc.SetNotifier(opts.Bus)
		notifier = opts.Bus
	}

	api := r.Group("/api", identify)
	catalog.NewHandler(svc).RegisterRoutes(api)

	readerHandler := reader.NewHandler(opts.Gateway, log)
	api.GET("/read/:novelId/:chapterId", readerHandler.Get)
	api.POST("/read/:novelId/:chapterId/:action", readerHandler.Transition)

	editorHandler := editor.NewHandler(opts.Gateway, notifier, log)
	editorHandler.RegisterRoutes(api)

	wsServer := websocket.NewServer(opts.Gateway, log)
	if opts.Bus != nil {
		wsServer.Broadcaster().Subscribe(opts.Bus.Router)
	}
	r.GET("/ws/read", identify, wsServer.HandleWebSocket)

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})

	return &Server{Router: r, editor: editorHandler, websocket: wsServer}
}

// Close ends editor sessions and live readers.
func (s *Server) Close() {
	s.editor.Shutdown()
	s.websocket.Stop()
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status())
	}
}
