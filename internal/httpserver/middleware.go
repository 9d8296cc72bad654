package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"univendor/internal/api"
	"univendor/internal/domain"
)

const (
	userCtxKey         = "univendor.user"
	impersonatorCtxKey = "univendor.impersonator"
	tokenCtxKey        = "univendor.token"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.Error("panic recovered", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	})
}

// sessionMiddleware resolves the session cookie, or a Bearer token, to a
// user. Requests without a valid session continue anonymously. While an
// admin impersonates someone the request runs as the impersonated user and
// the admin is kept alongside.
func sessionMiddleware(auth AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		c.Set(tokenCtxKey, token)
		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("session rejected", zap.Error(err))
			c.Next()
			return
		}
		c.Set(userCtxKey, p.User)
		if p.Impersonator != nil {
			c.Set(impersonatorCtxKey, p.Impersonator)
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(api.SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func requireUser(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

func impersonator(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(impersonatorCtxKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

func (h *handlers) setSessionCookie(c *gin.Context, token string, expires time.Time) {
	sameSite := http.SameSiteLaxMode
	if h.opts.Production {
		sameSite = http.SameSiteStrictMode
	}
	cookie := &http.Cookie{
		Name:     api.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.deps.Auth.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.opts.Production,
		SameSite: sameSite,
	}
	if h.opts.Production {
		cookie.Domain = h.opts.CookieDomain
	}
	http.SetCookie(c.Writer, cookie)
}

func (h *handlers) clearSessionCookie(c *gin.Context) {
	cookie := &http.Cookie{
		Name:     api.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.Production,
	}
	if h.opts.Production {
		cookie.Domain = h.opts.CookieDomain
	}
	http.SetCookie(c.Writer, cookie)
}
