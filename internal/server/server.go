// Package server is the HTTP surface. Authentication happens at an external
// gateway; requests arrive with the caller's ID in the X-User-ID header.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/edunova/platform/internal/app"
	"github.com/edunova/platform/internal/config"
	apperrors "github.com/edunova/platform/internal/errors"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       *app.Service
	db        *pgxpool.Pool
	redis     *goredis.Client
	startTime time.Time
}

func NewServer(cfg *config.Config, svc *app.Service, db *pgxpool.Pool, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       svc,
		db:        db,
		redis:     redisClient,
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1", s.requireUser)

	api.POST("/projects", s.handleCreateProject)
	api.GET("/projects/:id", s.handleGetProject)
	api.GET("/projects/:id/summary", s.handleGetSummary)
	api.GET("/projects/:id/evaluation", s.handleGetEvaluation)
	api.POST("/projects/:id/team/:userID", s.handleAddTeamMember)
	api.DELETE("/projects/:id/team/:userID", s.handleRemoveTeamMember)
	api.DELETE("/projects/:id/team", s.handleClearTeam)

	api.POST("/projects/:id/votes", s.handleCastVote)
	api.PATCH("/votes/:id", s.handleUpdateVote)
	api.DELETE("/votes/:id", s.handleDeleteVote)

	api.GET("/notifications", s.handleListNotifications)

	api.GET("/recommendations", s.handleListRecommendations)
	api.POST("/recommendations/refresh", s.handleRefreshRecommendations)

	api.POST("/orientation-requests", s.handleCreateOrientationRequest)
	api.POST("/orientation-requests/:id/assign", s.handleAssignAdvisor)
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
