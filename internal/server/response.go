package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/api"
	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

// ok sends 200 JSON with data.
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, api.Resp{
		ErrorCode: api.CodeOK,
		Message:   api.MessageSuccess,
		Data:      data,
	})
}

// fail sends an error envelope and stops the handler chain.
func fail(c *gin.Context, status, code int, message string, data any) {
	c.AbortWithStatusJSON(status, api.Resp{
		ErrorCode: code,
		Message:   message,
		Data:      data,
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, api.CodeBadRequest, message, nil)
}

func unauthorized(c *gin.Context) {
	fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "Unauthorized", nil)
}

// writeError maps domain errors to status codes and envelopes.
// Anything unrecognised is logged and reported as a 500 without details.
func (srv *Server) writeError(c *gin.Context, err error) {
	var (
		verr  *task.ValidationError
		nferr *task.NotFoundError
		perr  *task.InvalidPlacementError
	)
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, api.CodeValidation, verr.Error(), api.ValidationDetail{
			Field: verr.Field,
			Rule:  verr.Rule,
			Limit: verr.Limit,
		})
	case errors.As(err, &perr):
		fail(c, http.StatusBadRequest, api.CodeInvalidPlacement, perr.Error(), nil)
	case errors.As(err, &nferr):
		fail(c, http.StatusNotFound, api.CodeNotFound, nferr.Error(), api.NotFoundDetail{ID: nferr.ID})
	case errors.Is(err, auth.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, api.CodeInvalidEmail, err.Error(), nil)
	case errors.Is(err, auth.ErrWeakPassword):
		fail(c, http.StatusBadRequest, api.CodeWeakPassword, err.Error(), nil)
	case errors.Is(err, auth.ErrEmailTaken):
		fail(c, http.StatusConflict, api.CodeEmailTaken, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, api.CodeInvalidCredentials, err.Error(), nil)
	case errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, storage.ErrNoOwner):
		unauthorized(c)
	default:
		srv.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, api.CodeInternal, "Internal server error", nil)
	}
}
