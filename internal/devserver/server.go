// Package devserver is an in-memory implementation of the chartagoPM REST
// API. It issues short-lived bearer tokens and a refresh cookie, so the
// client's refresh-on-403 flow can be exercised end to end.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eshaffer321/chartagopm-go/internal/config"
)

// RefreshCookie is the httponly cookie that carries the refresh token
const RefreshCookie = "jwt"

// Server wraps the HTTP router and its dependencies
type Server struct {
	router  *gin.Engine
	store   *Store
	tokens  *Tokens
	metrics *Metrics
	logger  *zap.Logger
	config  *config.ServerConfig
}

// Options holds test seams. The zero value is fine for production.
type Options struct {
	// Now overrides the clock used for token issue and expiry
	Now func() time.Time
	// BcryptCost overrides bcrypt.DefaultCost
	BcryptCost int
}

// New creates a server. A nil logger discards logs.
func New(cfg *config.ServerConfig, logger *zap.Logger, opts *Options) (*Server, error) {
	if opts == nil {
		opts = &Options{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		store:   NewStore(opts.BcryptCost),
		tokens:  NewTokens(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, opts.Now),
		metrics: NewMetrics(),
		logger:  logger,
		config:  cfg,
	}

	if cfg.SeedDemo {
		if err := s.store.Seed(); err != nil {
			return nil, err
		}
		logger.Info("Seeded demo data", zap.String("email", "demo@chartago.dev"))
	}

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(s.metrics.Middleware())
	s.router.Use(requestLogger(logger))
	s.router.Use(corsMiddleware(cfg.CORSOrigins))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.GET("/health", s.health)
	r.GET("/metrics", s.metrics.Handler())

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/signup", s.signup)
	auth.POST("/logout", s.logout)

	api.GET("/refresh/token", s.refresh)

	// Authenticated by bearer or refresh cookie, like the original route.
	api.POST("/users/authenticated", s.authenticatedUser)

	protected := api.Group("")
	protected.Use(s.requireAuth())

	protected.GET("/users", s.listUsers)
	protected.PATCH("/users/:id", s.updateUser)

	protected.GET("/projects", s.listProjects)
	protected.POST("/projects", s.createProject)
	protected.GET("/projects/:id", s.getProject)
	protected.DELETE("/projects/:id", s.deleteProject)
	protected.GET("/projects/:id/tasks/dependencies", s.projectDependencies)
	protected.GET("/projects/:id/team", s.projectTeam)

	protected.GET("/tasks/", s.myTasks)
	protected.POST("/tasks/assign/task", s.assignTask)
	protected.GET("/tasks/:id", s.projectTasks)
	protected.POST("/tasks/:id", s.createTask)
	protected.PATCH("/tasks/:id/status", s.updateTaskStatus)
	protected.DELETE("/tasks/:id", s.deleteTask)
	protected.DELETE("/tasks/:id/users/:userId", s.unassignTask)
	protected.GET("/tasks/:id/assignees", s.taskAssignees)

	protected.GET("/teams", s.listTeams)
	protected.POST("/teams/members", s.addTeamMember)
	protected.DELETE("/teams/:id/members/:userId", s.removeTeamMember)
	protected.PATCH("/teams/:id/members/:userId/role", s.updateTeamMemberRole)
}

// Handler returns the HTTP handler, for httptest or a custom server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store exposes the data store for seeding in tests and tools
func (s *Server) Store() *Store {
	return s.store
}

// Run listens on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dev server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Shutting down dev server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
