// File: /routes/routes.go
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bikerental-api/config"
	"bikerental-api/controllers"
	"bikerental-api/middleware"
)

// SetupCORS builds the CORS middleware from the configured origins. A "*"
// entry allows every origin without credentials.
func SetupCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}

	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	cfg.AllowOrigins = allowed
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

func SetupRoutes(r *gin.Engine, app *App, cfg *config.Config, registry *prometheus.Registry) {
	// Controllers
	authController := controllers.NewAuthController(app.Auth, app.Logger)
	bikeController := controllers.NewBikeController(app.Bikes, app.Clock, app.Logger)
	locationController := controllers.NewLocationController(app.Locations, app.Logger)
	analyticsController := controllers.NewAnalyticsController(app.Analytics, app.Logger)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	authenticated := middleware.AuthMiddleware(app.Auth)
	track := middleware.TrackActivity(app.Activity, app.Logger)
	adminOnly := middleware.AdminOnly()
	limited := middleware.RateLimit(app.RateLimiter, cfg.RateLimitPerMinute)

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register/user/", authController.Register)
		auth.POST("/login/user/", limited, authController.Login)
		auth.POST("/login/user/verify-otp/", limited, authController.VerifyOTP)
		auth.POST("/resend-otp/", limited, authController.ResendOTP)
		auth.POST("/token/refresh/", authController.RefreshToken)

		auth.POST("/logout/user/", authenticated, track, authController.Logout)
		auth.POST("/change-password/", authenticated, track, authController.ChangePassword)
		auth.GET("/profile/", authenticated, track, authController.Profile)
	}

	// Bike routes, reads are public
	bikes := v1.Group("/bikes")
	{
		bikes.GET("/", bikeController.GetBikes)
		bikes.GET("/:id/", bikeController.GetBike)
		bikes.POST("/", authenticated, track, adminOnly, bikeController.CreateBike)
		bikes.PATCH("/:id/", authenticated, track, adminOnly, bikeController.UpdateBike)
		bikes.PUT("/:id/", authenticated, track, adminOnly, bikeController.UpdateBike)
		bikes.DELETE("/:id/", authenticated, track, adminOnly, bikeController.DeleteBike)
	}

	// Location routes, reads are public
	locations := v1.Group("/locations")
	{
		locations.GET("/", locationController.GetLocations)
		locations.GET("/search/", locationController.SearchLocations)
		locations.GET("/:id/", locationController.GetLocation)
		locations.POST("/", authenticated, track, adminOnly, locationController.CreateLocation)
		locations.PATCH("/:id/", authenticated, track, adminOnly, locationController.UpdateLocation)
		locations.PUT("/:id/", authenticated, track, adminOnly, locationController.UpdateLocation)
		locations.DELETE("/:id/", authenticated, track, adminOnly, locationController.DeleteLocation)
	}

	// Analytics routes
	analytics := v1.Group("/analytics")
	analytics.Use(authenticated, track)
	{
		analytics.GET("/hourly-usage/", analyticsController.HourlyUsage)
		analytics.GET("/bike-distribution/", analyticsController.BikeDistribution)
		analytics.GET("/monthly-revenue/", analyticsController.MonthlyRevenue)
		analytics.GET("/payment-methods/", analyticsController.PaymentMethods)

		admin := analytics.Group("/")
		admin.Use(adminOnly)
		{
			admin.GET("/quick-stats/", analyticsController.QuickStats)
			admin.GET("/monthly-rentals/", analyticsController.MonthlyRentals)
			admin.GET("/weekly-users/", analyticsController.WeeklyUsers)
		}
	}
}
