package api

import (
	goerrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/routines"
)

// statusFor maps err to a status code. Gate rejections are well-formed
// requests the server refuses, so they get 422 instead of 400.
func statusFor(err error) int {
	if goerrors.Is(err, routines.ErrNotActionable) {
		return http.StatusUnprocessableEntity
	}
	return errors.HTTPStatus(err)
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": errors.Message(err)})
}

// bindJSON decodes the request body into v. An empty body leaves v as is.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil && !goerrors.Is(err, io.EOF) {
		abortWithError(c, errors.Validation("invalid request body: %v", err))
		return false
	}
	return true
}
