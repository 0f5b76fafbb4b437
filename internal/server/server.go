package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"promanage/internal/common"
	"promanage/internal/models"
	"promanage/internal/service"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the business operations behind the routes.
type Services struct {
	Auth        *service.AuthService
	Projects    *service.ProjectService
	Dashboard   *service.DashboardService
	Collab      *service.CollabService
	Attachments *service.AttachmentService
}

// Options tunes the HTTP surface.
type Options struct {
	StaticDir   string
	CORSOrigins []string
}

// Server provides HTTP handlers for the project board backend.
type Server struct {
	engine    *gin.Engine
	svc       Services
	db        Pinger
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc Services, db Pinger, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/health"))
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	srv := &Server{
		engine:    router,
		svc:       svc,
		db:        db,
		logger:    logger,
		staticDir: opts.StaticDir,
	}

	srv.registerRoutes()
	return srv
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", s.handleLogin)
			authGroup.GET("/me", s.requireAuth(), s.handleMe)
			authGroup.POST("/logout", s.handleLogout)
		}

		dashboard := api.Group("/dashboard", s.requireAuth())
		{
			dashboard.GET("/overview", s.handleOverview)
			dashboard.GET("/my-stats", s.handleMyStats)
		}

		projects := api.Group("/projects", s.requireAuth())
		{
			projects.GET("", s.handleListProjects)
			projects.GET("/search", s.handleSearchProjects)
			for _, w := range models.Workspaces {
				projects.GET("/"+w.Slug(), s.handleListWorkspace(w))
			}
			projects.POST("", s.requireRoles(models.RolePM), s.handleCreateProject)
			projects.GET("/:id", s.handleGetProject)
			projects.PUT("/:id", s.requireRoles(models.RolePM, models.RoleTL), s.handleUpdateProject)
			projects.DELETE("/:id", s.requireRoles(models.RolePM), s.handleDeleteProject)

			projects.GET("/:id/comments", s.handleListComments)
			projects.POST("/:id/comments", s.handleAddComment)
			projects.PUT("/:id/comments/:commentId", s.handleUpdateComment)
			projects.DELETE("/:id/comments/:commentId", s.handleDeleteComment)
			projects.GET("/:id/activity", s.handleListActivity)

			projects.GET("/:id/attachments", s.handleListAttachments)
			projects.POST("/:id/attachments", s.handleCreateAttachment)
			projects.DELETE("/:id/attachments/:attachmentId", s.handleDeleteAttachment)
		}

		notifications := api.Group("/notifications", s.requireAuth())
		{
			notifications.GET("", s.handleListNotifications)
			notifications.POST("/read-all", s.handleMarkAllRead)
			notifications.POST("/:id/read", s.handleMarkRead)
		}

		api.GET("/users", s.requireAuth(), s.handleListUsers)
	}

	s.mountStatic()
}

// handleHealth reports readiness, including database reachability.
func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.Ping(c.Request.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			respond(c, http.StatusServiceUnavailable, false, "Database unavailable", nil)
			return
		}
	}
	respondSuccess(c, http.StatusOK, "Server is running", gin.H{"timestamp": time.Now().UTC()})
}

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, ok bool, message string, data any) {
	c.JSON(status, envelope{Success: ok, Message: message, Data: data})
}

// respondSuccess wraps a payload in the JSON envelope.
func respondSuccess(c *gin.Context, status int, message string, data any) {
	respond(c, status, true, message, data)
}

// respondError maps the error to a status code, logs it and aborts the chain.
// Internal failures never leak their text to the client.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg, ok := common.Message(err)
	if !ok {
		msg = err.Error()
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		msg = "Internal server error"
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error()))
	}

	c.AbortWithStatusJSON(status, envelope{Success: false, Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// bindJSON decodes the body, reporting malformed input as a validation error.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, common.Validation("Invalid request body: "+err.Error()))
		return false
	}
	return true
}
