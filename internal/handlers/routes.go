package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/cache"
	"github.com/travelmap/itinerary-backend/internal/middleware"
	"github.com/travelmap/itinerary-backend/internal/services"
	"github.com/travelmap/itinerary-backend/pkg/jwt"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
)

// Router wires every handler under /api/v1
type Router struct {
	JWT       *jwt.Service
	Locker    cache.Locker
	LockTTL   time.Duration
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
	Itinerary *ItineraryHandler
	Views     *ViewsHandler
	Connect   *ConnectHandler
	Auth      *AdminAuthHandler
	Admin     *AdminHandler
}

// Register mounts the API. Reads are public; mutations and connect mode
// need the admin role.
func (r *Router) Register(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")

	v1.GET("/cities", r.Itinerary.ListCities)
	v1.GET("/cities/:id", r.Itinerary.GetCity)
	v1.GET("/cities/:id/routes", r.Itinerary.CityRoutes)
	v1.GET("/routes", r.Itinerary.ListRoutes)
	v1.GET("/routes/:id", r.Itinerary.GetRoute)

	v1.GET("/timeline", r.Views.Timeline)
	v1.GET("/timeline/routes", r.Views.RouteTimeline)
	v1.GET("/expenses/total", r.Views.TotalSpent)
	v1.GET("/map", r.Views.Map)
	v1.GET("/map/presets", r.Views.MapPresets)

	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.Auth.Login)
		auth.POST("/refresh", r.Auth.RefreshToken)
		auth.POST("/logout", r.Auth.Logout)
		auth.GET("/session", middleware.OptionalAuth(r.JWT), r.Auth.Session)
	}

	admin := v1.Group("")
	admin.Use(middleware.AuthMiddleware(r.JWT, r.Logger), middleware.RequireRole(services.RoleAdmin))
	{
		cityGuard := middleware.InFlightGuard(r.Locker, "city", r.LockTTL, r.Metrics, r.Logger)
		routeGuard := middleware.InFlightGuard(r.Locker, "route", r.LockTTL, r.Metrics, r.Logger)

		admin.POST("/cities", r.Itinerary.CreateCity)
		admin.PUT("/cities/:id", cityGuard, r.Itinerary.UpdateCity)
		admin.DELETE("/cities/:id", cityGuard, r.Itinerary.DeleteCity)

		admin.POST("/routes", r.Itinerary.CreateRoute)
		admin.PUT("/routes/:id", routeGuard, r.Itinerary.UpdateRoute)
		admin.DELETE("/routes/:id", routeGuard, r.Itinerary.DeleteRoute)

		admin.GET("/connect", r.Connect.State)
		admin.POST("/connect/start", r.Connect.Start)
		admin.POST("/connect/complete", r.Connect.Complete)
		admin.POST("/connect/cancel", r.Connect.Cancel)

		admin.POST("/admin/reload", r.Admin.Reload)
	}
}
