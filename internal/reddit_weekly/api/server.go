package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reddit-weekly/internal/reddit_weekly/model"
	"reddit-weekly/internal/reddit_weekly/scheduler"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// Runner is satisfied by *scheduler.Worker.
type Runner interface {
	Trigger(ctx context.Context) (*model.RunReport, error)
	Recent(limit int) []model.RunReport
}

// RunStore is satisfied by *helper.Stores.
type RunStore interface {
	RecentRuns(ctx context.Context, limit int) ([]model.RunReport, error)
}

type Server struct {
	Log    *zap.Logger
	Worker Runner
	// History is optional; without it /runs serves the worker's memory.
	History RunStore
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.health)
	r.GET("/runs", s.listRuns) // ?limit=20
	r.POST("/runs", s.triggerRun)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit)))
	if limit <= 0 || limit > maxRunsLimit {
		limit = defaultRunsLimit
	}

	if s.History == nil {
		c.JSON(http.StatusOK, gin.H{"source": "memory", "data": s.Worker.Recent(limit)})
		return
	}

	runs, err := s.History.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		s.Log.Error("Failed to load run history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": "history", "data": runs})
}

func (s *Server) triggerRun(c *gin.Context) {
	report, err := s.Worker.Trigger(c.Request.Context())
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, scheduler.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "data": report})
	default:
		c.JSON(http.StatusOK, gin.H{"data": report})
	}
}
