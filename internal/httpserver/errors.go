package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"univendor/internal/api"
	"univendor/internal/domain"
	authsvc "univendor/internal/service/auth"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrAlreadyExists, http.StatusConflict},
	{domain.ErrEmptyCart, http.StatusBadRequest},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrForbidden, http.StatusForbidden},
	{authsvc.ErrInvalidCode, http.StatusBadRequest},
	{authsvc.ErrCodeExpired, http.StatusBadRequest},
	{authsvc.ErrNotVerified, http.StatusBadRequest},
	{authsvc.ErrTooManyAttempts, http.StatusTooManyRequests},
	{authsvc.ErrEmailLoginDisabled, http.StatusForbidden},
	{authsvc.ErrInvalidSession, http.StatusUnauthorized},
}

// writeError maps a service error to a status and writes {"error": msg}.
// Unmapped errors are logged and reported as 500 without detail.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: verr.Msg})
		return
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, api.ErrorResponse{Error: m.err.Error()})
			return
		}
	}
	_ = c.Error(err)
	logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: msg})
}
