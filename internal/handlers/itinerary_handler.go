package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/internal/services"
	"github.com/travelmap/itinerary-backend/internal/utils"
)

// ItineraryHandler handles city and route HTTP requests
type ItineraryHandler struct {
	itinerary *services.ItineraryService
	audit     *services.AuditService
	logger    *logrus.Logger
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(itinerary *services.ItineraryService, audit *services.AuditService, logger *logrus.Logger) *ItineraryHandler {
	return &ItineraryHandler{
		itinerary: itinerary,
		audit:     audit,
		logger:    logger,
	}
}

// ListCities handles GET /api/v1/cities
func (h *ItineraryHandler) ListCities(c *gin.Context) {
	c.JSON(http.StatusOK, h.itinerary.Cities())
}

// GetCity handles GET /api/v1/cities/:id
func (h *ItineraryHandler) GetCity(c *gin.Context) {
	city, ok := h.itinerary.City(c.Param("id"))
	if !ok {
		respondServiceError(c, h.logger, services.ErrCityNotFound)
		return
	}
	c.JSON(http.StatusOK, city)
}

// CityRoutes handles GET /api/v1/cities/:id/routes
func (h *ItineraryHandler) CityRoutes(c *gin.Context) {
	routes, err := h.itinerary.RoutesForCity(c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

// CreateCity handles POST /api/v1/cities
func (h *ItineraryHandler) CreateCity(c *gin.Context) {
	var req models.CreateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	city, err := h.itinerary.CreateCity(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	h.auditMutation(c, "create", "city", city.ID, map[string]interface{}{"city": city.City})
	c.JSON(http.StatusCreated, h.settled(c, models.MutationResult{Applied: true, City: city}))
}

// UpdateCity handles PUT /api/v1/cities/:id
func (h *ItineraryHandler) UpdateCity(c *gin.Context) {
	var req models.UpdateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	city, applied, err := h.itinerary.UpdateCity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if !applied {
		notApplied(c)
		return
	}

	h.auditMutation(c, "update", "city", city.ID, nil)
	c.JSON(http.StatusOK, h.settled(c, models.MutationResult{Applied: true, City: city}))
}

// DeleteCity handles DELETE /api/v1/cities/:id. Routes touching the city
// are deleted first.
func (h *ItineraryHandler) DeleteCity(c *gin.Context) {
	id := c.Param("id")
	deleted, applied, err := h.itinerary.DeleteCity(c.Request.Context(), id)
	var storeErr *services.StoreError
	if len(deleted) > 0 && errors.As(err, &storeErr) {
		h.auditMutation(c, "delete_partial", "city", id, map[string]interface{}{"deleted_routes": len(deleted)})
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:           "store_failure",
			Message:         fmt.Sprintf("Saving failed during %s, the city was kept but %d of its routes were removed", storeErr.Op, len(deleted)),
			Code:            "STORE_FAILURE",
			DeletedRouteIDs: deleted,
		})
		return
	}
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if !applied {
		notApplied(c)
		return
	}

	h.auditMutation(c, "delete", "city", id, map[string]interface{}{"deleted_routes": len(deleted)})
	c.JSON(http.StatusOK, h.settled(c, models.MutationResult{Applied: true, DeletedIDs: deleted}))
}

// ListRoutes handles GET /api/v1/routes
func (h *ItineraryHandler) ListRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, h.itinerary.Routes())
}

// GetRoute handles GET /api/v1/routes/:id
func (h *ItineraryHandler) GetRoute(c *gin.Context) {
	route, ok := h.itinerary.Route(c.Param("id"))
	if !ok {
		respondServiceError(c, h.logger, services.ErrRouteNotFound)
		return
	}
	c.JSON(http.StatusOK, route)
}

// CreateRoute handles POST /api/v1/routes
func (h *ItineraryHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	route, err := h.itinerary.CreateRoute(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrOperationInProgress) {
			h.audit.LogConflict(actor(c), "route", req.FromID+"->"+req.ToID, utils.GetRealIP(c), utils.GetUserAgent(c))
		}
		respondServiceError(c, h.logger, err)
		return
	}

	h.auditMutation(c, "create", "route", route.ID, map[string]interface{}{"from_id": route.FromID, "to_id": route.ToID})
	c.JSON(http.StatusCreated, h.settled(c, models.MutationResult{Applied: true, Route: route}))
}

// UpdateRoute handles PUT /api/v1/routes/:id
func (h *ItineraryHandler) UpdateRoute(c *gin.Context) {
	var req models.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	route, applied, err := h.itinerary.UpdateRoute(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if !applied {
		notApplied(c)
		return
	}

	h.auditMutation(c, "update", "route", route.ID, nil)
	c.JSON(http.StatusOK, h.settled(c, models.MutationResult{Applied: true, Route: route}))
}

// DeleteRoute handles DELETE /api/v1/routes/:id
func (h *ItineraryHandler) DeleteRoute(c *gin.Context) {
	id := c.Param("id")
	applied, err := h.itinerary.DeleteRoute(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if !applied {
		notApplied(c)
		return
	}

	h.auditMutation(c, "delete", "route", id, nil)
	c.JSON(http.StatusOK, h.settled(c, models.MutationResult{Applied: true}))
}

func (h *ItineraryHandler) settled(c *gin.Context, result models.MutationResult) models.MutationResult {
	h.itinerary.Settle(c.Request.Context(), &result)
	return result
}

func (h *ItineraryHandler) auditMutation(c *gin.Context, action, entity, id string, details map[string]interface{}) {
	h.audit.LogMutation(actor(c), action, entity, id, utils.GetRealIP(c), utils.GetUserAgent(c), details)
}
