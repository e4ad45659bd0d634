package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/travelmap/itinerary-backend/internal/services"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"store failure", &services.StoreError{Op: "delete_city", Err: errors.New("connection reset")}, http.StatusInternalServerError, "STORE_FAILURE"},
		{"wrapped validation", fmt.Errorf("create: %w", &services.ValidationError{Field: "stay_out", Err: errors.New("before stay_in")}), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"route not found", services.ErrRouteNotFound, http.StatusNotFound, "ROUTE_NOT_FOUND"},
		{"in progress", services.ErrOperationInProgress, http.StatusConflict, "OPERATION_IN_PROGRESS"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("DELETE", "/api/v1/cities/x", nil)

			respondServiceError(c, logger, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestRespondServiceError_Canceled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/cities", nil)

	respondServiceError(c, logger, fmt.Errorf("create: %w", context.Canceled))

	assert.Equal(t, statusClientClosedRequest, c.Writer.Status())
	assert.Empty(t, w.Body.String())
}
