package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/campusbot/internal/domain/auth"
	apperrors "github.com/yanqian/campusbot/pkg/errors"
)

// AuthHandler exposes admin login endpoints.
type AuthHandler struct {
	svc auth.Service
	cfg auth.Config
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(svc auth.Service, cfg auth.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// Login exchanges email/password for tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates the token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile returns the current admin.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	view, err := h.svc.Profile(c.Request.Context(), claims.AdminID)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// Logout revokes the linked provider refresh token, if any.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), claims.AdminID); err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// GoogleLogin starts the PKCE flow and redirects to Google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_error", "failed to create oauth state", err))
		return
	}
	url, err := h.svc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusFound, url)
}

// GoogleCallback completes the PKCE flow.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	stored, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "missing oauth state", nil))
		return
	}
	if c.Query("state") != stored.State {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "oauth state mismatch", nil))
		return
	}
	resp, err := h.svc.GoogleCallback(c.Request.Context(), c.Query("code"), stored.CodeVerifier)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	if redirect := strings.TrimSpace(h.cfg.Google.PostLoginRedirectURL); redirect != "" {
		sep := "?"
		if strings.Contains(redirect, "?") {
			sep = "&"
		}
		c.Redirect(http.StatusFound, redirect+sep+"token="+resp.Token)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func authHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "auth_error"
	switch {
	case apperrors.IsCode(err, "invalid_input"), apperrors.IsCode(err, "invalid_request"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "invalid_credentials"), apperrors.IsCode(err, "invalid_token"):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case apperrors.IsCode(err, "forbidden"):
		status = http.StatusForbidden
		code = "forbidden"
	case apperrors.IsCode(err, "admin_not_found"):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, "auth_not_configured"):
		status = http.StatusServiceUnavailable
		code = "auth_not_configured"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}
