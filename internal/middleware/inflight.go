package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/cache"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
)

// InFlightGuard rejects a mutation addressed to an entity that already has
// one in flight. The entity id comes from the :id path parameter; the lock
// expires after ttl even if the holder never releases it.
func InFlightGuard(locker cache.Locker, entity string, ttl time.Duration, m *metrics.Metrics, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			c.Next()
			return
		}

		key := cache.Key(entity, id)
		token, acquired, err := locker.TryLock(c.Request.Context(), key, ttl)
		if err != nil {
			logger.WithError(err).WithField("key", key).Error("Mutation lock unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "service_unavailable",
				"message": "Could not coordinate the change, please retry",
				"code":    "LOCK_UNAVAILABLE",
			})
			c.Abort()
			return
		}
		if !acquired {
			m.GuardConflicts.WithLabelValues(entity).Inc()
			logger.WithFields(logrus.Fields{"entity": entity, "id": id}).Info("Mutation rejected, another one in flight")
			c.JSON(http.StatusConflict, gin.H{
				"error":   "conflict",
				"message": "Another change to this " + entity + " is still being saved",
				"code":    "OPERATION_IN_PROGRESS",
			})
			c.Abort()
			return
		}

		defer func() {
			err := locker.Unlock(context.WithoutCancel(c.Request.Context()), key, token)
			if errors.Is(err, cache.ErrLockNotHeld) {
				logger.WithField("key", key).Warn("Mutation lock expired before the request finished")
			} else if err != nil {
				logger.WithError(err).WithField("key", key).Warn("Failed to release mutation lock")
			}
		}()
		c.Next()
	}
}
