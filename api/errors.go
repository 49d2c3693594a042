package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
)

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, run.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, run.ErrDataUnavailable),
		errors.Is(err, run.ErrUnknownRun),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, run.ErrCancelled),
		errors.Is(err, run.ErrRunActive),
		errors.Is(err, run.ErrRunFinished):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := statusFor(err)
	body := gin.H{"error": err.Error()}
	var ce *run.ConfigError
	if errors.As(err, &ce) {
		body["field"] = ce.Field
	}
	if code == http.StatusInternalServerError {
		h.log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "internal error"
	}
	c.AbortWithStatusJSON(code, body)
}
