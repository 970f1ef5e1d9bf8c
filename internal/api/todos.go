package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/todos"
)

// todoLocation is the zone due dates are interpreted in.
func (s *Server) todoLocation(c *gin.Context) *time.Location {
	return s.routines.Location(c.Request.Context(), caller(c))
}

func (s *Server) handleListTodos(c *gin.Context) {
	list, err := s.todos.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	var in todos.Input
	if !bindJSON(c, &in) {
		return
	}
	todo, err := s.todos.Create(c.Request.Context(), currentUser(c).ID, in, s.todoLocation(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	var in todos.Input
	if !bindJSON(c, &in) {
		return
	}
	todo, err := s.todos.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), in, s.todoLocation(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	if err := s.todos.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted"})
}
