// Package api serves routines, completion toggles, stats and todos over
// HTTP.
package api

import (
	"context"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/todos"
	"github.com/julianstephens/routinely/internal/users"
)

// Server is the routinely HTTP API server
type Server struct {
	routines *routines.Service
	todos    *todos.Service
	users    *users.Service
	router   *gin.Engine
}

// NewServer wires the routes. Every route under /api requires a bearer
// token.
func NewServer(rs *routines.Service, ts *todos.Service, us *users.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), limitBody())

	s := &Server{
		routines: rs,
		todos:    ts,
		users:    us,
		router:   router,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api", s.authenticate(), s.resolveTimezone())
	{
		api.GET("/routines", s.handleListRoutines)
		api.POST("/routines", s.handleCreateRoutine)
		api.GET("/routines/:id", s.handleGetRoutine)
		api.PUT("/routines/:id", s.handleUpdateRoutine)
		api.DELETE("/routines/:id", s.handleDeleteRoutine)
		api.PATCH("/routines/:id/tasks/:taskId/complete", s.handleComplete)
		api.PATCH("/routines/:id/tasks/:taskId/uncomplete", s.handleUncomplete)
		api.GET("/routines/:id/week", s.handleWeek)

		api.GET("/stats/summary", s.handleSummary)

		api.GET("/todos", s.handleListTodos)
		api.POST("/todos", s.handleCreateTodo)
		api.PUT("/todos/:id", s.handleUpdateTodo)
		api.DELETE("/todos/:id", s.handleDeleteTodo)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !goerrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
