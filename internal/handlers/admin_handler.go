package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/internal/services"
	"github.com/travelmap/itinerary-backend/internal/utils"
)

// AdminHandler handles admin maintenance requests
type AdminHandler struct {
	itinerary *services.ItineraryService
	audit     *services.AuditService
	logger    *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(itinerary *services.ItineraryService, audit *services.AuditService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		itinerary: itinerary,
		audit:     audit,
		logger:    logger,
	}
}

// Reload handles POST /api/v1/admin/reload. The mirror is rebuilt from the
// store, dropping anything that drifted.
func (h *AdminHandler) Reload(c *gin.Context) {
	if err := h.itinerary.Load(c.Request.Context()); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	result := models.ReloadResult{
		Cities: len(h.itinerary.Cities()),
		Routes: len(h.itinerary.Routes()),
	}
	h.audit.LogMutation(actor(c), "reload", "itinerary", "", utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
		"cities": result.Cities,
		"routes": result.Routes,
	})
	c.JSON(http.StatusOK, result)
}
