package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"univendor/internal/api"
	"univendor/internal/domain"
	authsvc "univendor/internal/service/auth"
)

func (h *handlers) sendOTP(c *gin.Context) {
	var req api.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.deps.Auth.SendOTP(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "OTP sent"})
}

func (h *handlers) verifyOTP(c *gin.Context) {
	var req api.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.deps.Auth.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if res.RequiresRegistration {
		c.JSON(http.StatusOK, api.AuthResponse{RequiresRegistration: true})
		return
	}
	h.signedIn(c, http.StatusOK, res)
}

func (h *handlers) registerUser(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.deps.Auth.Register(c.Request.Context(), authsvc.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.signedIn(c, http.StatusCreated, res)
}

func (h *handlers) login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.deps.Auth.LoginWithEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.signedIn(c, http.StatusOK, res)
}

func (h *handlers) logout(c *gin.Context) {
	if token := c.GetString(tokenCtxKey); token != "" {
		if err := h.deps.Auth.Logout(c.Request.Context(), token); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out"})
}

func (h *handlers) me(c *gin.Context) {
	u, _ := currentUser(c)
	out := toAPIUser(*u)
	if admin, ok := impersonator(c); ok {
		original := toAPIUser(*admin)
		out.IsImpersonating = true
		out.OriginalUser = &original
	}
	c.JSON(http.StatusOK, out)
}

// actingAdmin is the session's own user: the impersonator while an
// impersonation is active, else the current user.
func actingAdmin(c *gin.Context) *domain.User {
	if admin, ok := impersonator(c); ok {
		return admin
	}
	u, _ := currentUser(c)
	return u
}

func (h *handlers) impersonate(c *gin.Context) {
	admin := actingAdmin(c)
	target, err := h.deps.Auth.Impersonate(c.Request.Context(), c.GetString(tokenCtxKey), *admin, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	user := toAPIUser(*target)
	original := toAPIUser(*admin)
	user.IsImpersonating = true
	user.OriginalUser = &original
	c.JSON(http.StatusOK, api.ImpersonationResponse{Message: "Impersonation started", User: user})
}

func (h *handlers) stopImpersonating(c *gin.Context) {
	admin := actingAdmin(c)
	if err := h.deps.Auth.StopImpersonating(c.Request.Context(), c.GetString(tokenCtxKey)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, api.ImpersonationResponse{Message: "Impersonation ended", User: toAPIUser(*admin)})
}

func (h *handlers) signedIn(c *gin.Context, status int, res *authsvc.Result) {
	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	user := toAPIUser(*res.User)
	c.JSON(status, api.AuthResponse{
		User:       &user,
		RedirectTo: res.User.Role.HomePath(),
	})
}
