package api

import (
	"context"
	"net/http"
	"time"

	"ecss/internal/scheduler"
	"ecss/internal/store"

	logx "ecss/pkg/logx"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config configures the REST server's listen address and HTTP timeouts.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server is the REST surface in front of an Engine: it validates and
// persists job documents, then enqueues a Mutation so the engine's cron
// runner picks up the change.
type Server struct {
	engine *scheduler.Engine
	store  store.Store
	log    logx.Logger

	router     *gin.Engine
	httpServer *http.Server
}

// New builds a Server and wires its routes. Call Start to begin
// listening.
func New(cfg Config, engine *scheduler.Engine, st store.Store, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.ExposeHeaders = []string{"Content-Length", "Content-Range"}
	router.Use(cors.New(corsCfg))

	s := &Server{engine: engine, store: st, log: log, router: router}

	router.Use(jsonContentTypeMiddleware())
	s.registerRoutes()

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleHome)
	s.router.GET("/spec", s.handleSpec)

	jobs := s.router.Group("/jobs")
	jobs.GET("", s.handleListJobs)
	jobs.POST("", s.handleCreateJob)
	jobs.GET("/:id", s.handleGetJob)
	jobs.PUT("/:id", s.handleUpdateJob)
	jobs.DELETE("/:id", s.handleDeleteJob)
}

// Start begins serving in the background and returns immediately; a
// failure to bind the listener is logged rather than returned, since it
// happens on the server goroutine after this call has already returned.
func (s *Server) Start() {
	s.log.Info("api listening", logx.String("addr", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("api listener failed", logx.Any("err", err))
		}
	}()
}

// Stop gracefully shuts the HTTP server down, honoring ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "application/json; charset=utf-8")
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := c.GetHeader("Content-Type")
			if ct != "" && ct != "application/json" && ct != "application/json; charset=utf-8" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, ErrorResponse{
					Message: "Content-Type must be application/json",
				})
				return
			}
		}
		c.Next()
	}
}

func ginLogger(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			logx.String("method", c.Request.Method),
			logx.String("path", c.Request.URL.Path),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("took", time.Since(start)))
	}
}
