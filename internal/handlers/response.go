package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/services"
)

// statusClientClosedRequest is used when the caller went away mid request
const statusClientClosedRequest = 499

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// DeletedRouteIDs lists routes a failed city delete already removed
	DeletedRouteIDs []string `json:"deleted_route_ids,omitempty"`
}

func abortWithError(c *gin.Context, status int, errType, message, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   errType,
		Message: message,
		Code:    code,
	})
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error(), "INVALID_REQUEST")
}

// respondServiceError maps a service error onto the HTTP error contract
func respondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *services.ValidationError
	var storeErr *services.StoreError

	switch {
	case errors.Is(err, context.Canceled):
		logger.WithField("path", c.Request.URL.Path).Debug("Request cancelled by client")
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.As(err, &validationErr):
		abortWithError(c, http.StatusBadRequest, "validation_failed", validationErr.Error(), "VALIDATION_FAILED")
	case errors.Is(err, services.ErrSameCity):
		abortWithError(c, http.StatusBadRequest, "validation_failed", err.Error(), "VALIDATION_FAILED")
	case errors.Is(err, services.ErrCityNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error(), "CITY_NOT_FOUND")
	case errors.Is(err, services.ErrRouteNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error(), "ROUTE_NOT_FOUND")
	case errors.Is(err, services.ErrNotConnecting):
		abortWithError(c, http.StatusConflict, "conflict", "Pick an origin city before choosing a destination", "NOT_CONNECTING")
	case errors.Is(err, services.ErrOperationInProgress):
		abortWithError(c, http.StatusConflict, "conflict", err.Error(), "OPERATION_IN_PROGRESS")
	case errors.As(err, &storeErr):
		abortWithError(c, http.StatusInternalServerError, "store_failure", "Saving failed during "+storeErr.Op+", the itinerary was left as it was", "STORE_FAILURE")
	default:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		abortWithError(c, http.StatusInternalServerError, "internal_error", err.Error(), "INTERNAL_ERROR")
	}
}

// notApplied answers a mutation addressed to an id that no longer exists
func notApplied(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"applied": false})
}
