package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/middleware"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/internal/services"
	"github.com/travelmap/itinerary-backend/internal/utils"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	adminAuthService *services.AdminAuthService
	audit            *services.AuditService
	logger           *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminAuthService *services.AdminAuthService, audit *services.AuditService, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminAuthService: adminAuthService,
		audit:            audit,
		logger:           logger,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ip, ua := utils.GetRealIP(c), utils.GetUserAgent(c)

	response, err := h.adminAuthService.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		h.logger.WithField("email", req.Email).Debug("Login cancelled by client")
		c.AbortWithStatus(statusClientClosedRequest)
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		h.audit.LogLogin(req.Email, ip, ua, false, "invalid credentials")
		h.logger.WithField("email", req.Email).Warn("Admin login failed")
		abortWithError(c, http.StatusUnauthorized, "invalid_credentials",
			"Email or password is incorrect. Check both and try again.", "INVALID_CREDENTIALS")
		return
	default:
		h.logger.WithError(err).Error("Admin login error")
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Sign in failed: "+err.Error(), "LOGIN_FAILED")
		return
	}

	h.audit.LogLogin(response.AdminUser.Email, ip, ua, true, "")
	h.logger.WithFields(logrus.Fields{
		"admin_id": response.AdminUser.ID,
		"email":    response.AdminUser.Email,
	}).Info("Admin login successful")

	c.JSON(http.StatusOK, response)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AdminAuthHandler) RefreshToken(c *gin.Context) {
	var req models.AdminRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.adminAuthService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.audit.LogTokenRefresh(utils.GetRealIP(c), utils.GetUserAgent(c), false)
		if errors.Is(err, services.ErrTokenRevoked) {
			abortWithError(c, http.StatusUnauthorized, "token_revoked", "This session was signed out. Sign in again.", "TOKEN_REVOKED")
			return
		}
		h.logger.WithError(err).Warn("Token refresh failed")
		abortWithError(c, http.StatusUnauthorized, "invalid_token", "Invalid refresh token", "INVALID_REFRESH_TOKEN")
		return
	}

	h.audit.LogTokenRefresh(utils.GetRealIP(c), utils.GetUserAgent(c), true)
	c.JSON(http.StatusOK, response)
}

// Logout handles POST /api/v1/auth/logout
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	var req models.AdminRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.adminAuthService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.WithError(err).Warn("Logout failed")
		abortWithError(c, http.StatusBadRequest, "invalid_token", "Invalid refresh token", "INVALID_REFRESH_TOKEN")
		return
	}

	h.audit.LogLogout(h.adminAuthService.Admin().Email, utils.GetRealIP(c), utils.GetUserAgent(c))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Session handles GET /api/v1/auth/session
func (h *AdminAuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.adminAuthService.Session(middleware.GetClaims(c)))
}
