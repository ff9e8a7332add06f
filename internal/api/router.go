// Package api contains the HTTP handlers and routing for the donation service.
package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode, adminAPIKey string) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check (public)
	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	{
		// Donation flow endpoints, called by the website frontend.
		v1.POST("/payment/order", handler.CreateOrder)
		v1.POST("/payment/verify", handler.VerifyPayment)
		v1.POST("/paypal/capture", handler.CapturePayPal)
		v1.POST("/donation/complete", handler.CompleteDonation)

		// Reporting endpoints for the admin dashboard.
		admin := v1.Group("/donations")
		admin.Use(AdminAuthMiddleware(adminAPIKey))
		{
			admin.GET("", handler.ListDonations)
			admin.GET("/stats", handler.DonationStats)
			admin.GET("/:receiptNumber", handler.GetDonation)
		}
	}

	return router
}
