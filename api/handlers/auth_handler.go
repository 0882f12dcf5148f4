package handlers

import (
	"example.com/textile/erp/api/middleware"
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login, logout and two-factor enrolment
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login exchanges credentials for an access token or a 2FA challenge
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		log.Warn().Str("tenant", req.Tenant).Str("username", req.Username).Msg("Login rejected")
		api.WriteError(c, err)
		return
	}
	api.OK(c, resp)
}

// VerifyTwoFactor completes a login started with a challenge token
func (h *AuthHandler) VerifyTwoFactor(c *gin.Context) {
	var req service.VerifyTwoFactorRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.VerifyTwoFactor(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, resp)
}

// Logout revokes the presented access token
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		log.Error().Err(err).Msg("Failed to revoke token")
		api.WriteError(c, err)
		return
	}
	api.OK(c, gin.H{"logged_out": true})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), req); err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, gin.H{"changed": true})
}

// SetupTwoFactor starts enrolment and returns the pending secret
func (h *AuthHandler) SetupTwoFactor(c *gin.Context) {
	key, err := h.service.SetupTwoFactor(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, key)
}

func (h *AuthHandler) EnableTwoFactor(c *gin.Context) {
	var req service.CodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.EnableTwoFactor(c.Request.Context(), req); err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, gin.H{"two_factor_enabled": true})
}

func (h *AuthHandler) DisableTwoFactor(c *gin.Context) {
	var req service.CodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.DisableTwoFactor(c.Request.Context(), req); err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, gin.H{"two_factor_enabled": false})
}
