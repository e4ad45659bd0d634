package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/internal/services"
)

// ViewsHandler serves the derived, read-only views
type ViewsHandler struct {
	itinerary *services.ItineraryService
	logger    *logrus.Logger
}

// NewViewsHandler creates a new views handler
func NewViewsHandler(itinerary *services.ItineraryService, logger *logrus.Logger) *ViewsHandler {
	return &ViewsHandler{itinerary: itinerary, logger: logger}
}

// Timeline handles GET /api/v1/timeline
func (h *ViewsHandler) Timeline(c *gin.Context) {
	c.JSON(http.StatusOK, h.itinerary.DateTimeline())
}

// RouteTimeline handles GET /api/v1/timeline/routes
func (h *ViewsHandler) RouteTimeline(c *gin.Context) {
	c.JSON(http.StatusOK, h.itinerary.RouteTimeline())
}

// TotalSpent handles GET /api/v1/expenses/total. Always read from the store.
func (h *ViewsHandler) TotalSpent(c *gin.Context) {
	total, err := h.itinerary.Expenses().TotalSpent(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, total)
}

// Map handles GET /api/v1/map
func (h *ViewsHandler) Map(c *gin.Context) {
	c.JSON(http.StatusOK, h.itinerary.MapView())
}

// MapPresets handles GET /api/v1/map/presets
func (h *ViewsHandler) MapPresets(c *gin.Context) {
	c.JSON(http.StatusOK, models.MapPresets)
}
