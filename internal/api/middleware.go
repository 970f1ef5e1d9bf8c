package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
)

const (
	userKey     = "user"
	locationKey = "location"
)

// requestLogger logs each request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", kv...)
		default:
			logger.Debug("request", kv...)
		}
	}
}

func limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxRequestBodyKB*1024)
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.users.Authenticate(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// resolveTimezone picks the request's location: the X-Timezone header,
// then the user's stored zone, then the server setting. The zone used is
// echoed in the response's X-Timezone header.
func (s *Server) resolveTimezone() gin.HandlerFunc {
	return func(c *gin.Context) {
		tz := c.GetHeader(constants.TimezoneHeader)
		if tz == "" {
			tz = currentUser(c).Timezone
		}
		var loc *time.Location
		if tz != "" {
			var err error
			if loc, err = daykey.LoadLocation(tz); err != nil {
				abortWithError(c, errors.Validation("invalid timezone %q", tz))
				return
			}
		} else {
			loc = s.routines.Location(c.Request.Context(), routines.Caller{})
		}
		c.Set(locationKey, loc)
		c.Header(constants.TimezoneHeader, daykey.Name(loc))
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(models.User); ok {
			return u
		}
	}
	return models.User{}
}

func caller(c *gin.Context) routines.Caller {
	caller := routines.Caller{UserID: currentUser(c).ID}
	if v, ok := c.Get(locationKey); ok {
		caller.Location, _ = v.(*time.Location)
	}
	return caller
}
