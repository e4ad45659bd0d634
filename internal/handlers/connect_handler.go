package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/middleware"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/internal/services"
	"github.com/travelmap/itinerary-backend/internal/utils"
)

// ConnectHandler drives connect mode for the signed in admin
type ConnectHandler struct {
	connect   *services.ConnectService
	itinerary *services.ItineraryService
	audit     *services.AuditService
	logger    *logrus.Logger
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(connect *services.ConnectService, itinerary *services.ItineraryService, audit *services.AuditService, logger *logrus.Logger) *ConnectHandler {
	return &ConnectHandler{
		connect:   connect,
		itinerary: itinerary,
		audit:     audit,
		logger:    logger,
	}
}

// State handles GET /api/v1/connect
func (h *ConnectHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConnectResponse{State: h.connect.State(actor(c))})
}

// Start handles POST /api/v1/connect/start
func (h *ConnectHandler) Start(c *gin.Context) {
	var req models.ConnectStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	state, err := h.connect.Start(actor(c), req.FromID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.ConnectResponse{State: state})
}

// Complete handles POST /api/v1/connect/complete
func (h *ConnectHandler) Complete(c *gin.Context) {
	var req models.ConnectCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	who := actor(c)
	route, state, err := h.connect.Complete(c.Request.Context(), who, req.ToID, req.RouteInput)
	if err != nil {
		if errors.Is(err, services.ErrOperationInProgress) {
			h.audit.LogConflict(who, "route", state.FromID+"->"+req.ToID, utils.GetRealIP(c), utils.GetUserAgent(c))
		}
		respondServiceError(c, h.logger, err)
		return
	}
	if route == nil {
		c.JSON(http.StatusOK, models.ConnectResponse{State: state})
		return
	}

	h.audit.LogMutation(who, "create", "route", route.ID, utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
		"from_id": route.FromID,
		"to_id":   route.ToID,
		"via":     "connect",
	})

	result := models.MutationResult{Applied: true, Route: route}
	h.itinerary.Settle(c.Request.Context(), &result)
	c.JSON(http.StatusCreated, models.ConnectResponse{State: state, Result: &result})
}

// Cancel handles POST /api/v1/connect/cancel
func (h *ConnectHandler) Cancel(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConnectResponse{State: h.connect.Cancel(actor(c))})
}

func actor(c *gin.Context) string {
	userCtx, _ := middleware.GetUserContext(c)
	return userCtx.Email
}
