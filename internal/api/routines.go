package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
)

func (s *Server) handleListRoutines(c *gin.Context) {
	list, err := s.routines.List(c.Request.Context(), caller(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetRoutine(c *gin.Context) {
	r, err := s.routines.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleCreateRoutine(c *gin.Context) {
	var in routines.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := s.routines.Create(c.Request.Context(), caller(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) handleUpdateRoutine(c *gin.Context) {
	var in routines.UpdateInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := s.routines.Update(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleDeleteRoutine(c *gin.Context) {
	if err := s.routines.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Routine deleted"})
}

func (s *Server) handleComplete(c *gin.Context) {
	s.handleToggle(c, s.routines.Complete)
}

func (s *Server) handleUncomplete(c *gin.Context) {
	s.handleToggle(c, s.routines.Uncomplete)
}

type toggleFunc func(ctx context.Context, caller routines.Caller, routineID, taskID string, in routines.ToggleInput) (models.Routine, error)

func (s *Server) handleToggle(c *gin.Context, toggle toggleFunc) {
	var in routines.ToggleInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := toggle(c.Request.Context(), caller(c), c.Param("id"), c.Param("taskId"), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleWeek(c *gin.Context) {
	week, err := s.routines.Week(c.Request.Context(), caller(c), c.Param("id"), c.Query("date"), c.Query("mode"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.routines.Summary(c.Request.Context(), caller(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
