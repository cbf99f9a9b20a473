package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/nft-benefit-registry/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Mutations (require authentication)
		v1.POST("/benefits/token", middleware.Auth(authCfg), handler.AttachTokenBenefit)
		v1.POST("/benefits/collection", middleware.Auth(authCfg), handler.AttachCollectionBenefit)
		v1.PATCH("/benefits/:benefit_id", middleware.Auth(authCfg), handler.UpdateBenefit)
		v1.DELETE("/benefits/:benefit_id", middleware.Auth(authCfg), handler.RemoveBenefit)

		// Discovery endpoints (public read access)
		v1.GET("/benefits/:benefit_id/uri", handler.GetBenefitURI)
		v1.GET("/benefits/:benefit_id/assigner", handler.CheckAssigner)
		v1.GET("/tokens/:token_number/benefits", handler.ListTokenBenefits)
		v1.GET("/collection/benefits", handler.ListCollectionBenefits)
		v1.GET("/capabilities", handler.GetCapabilities)

		// Advisory metadata document lint (open, no authentication required)
		v1.POST("/metadata/lint", handler.LintMetadataDocument)

		// Webhook endpoints (requires API key authentication only)
		v1.POST("/webhooks/clients", middleware.APIKeyAuth(authCfg), handler.CreateWebhookClient)
		v1.DELETE("/webhooks/clients/:client_id", middleware.APIKeyAuth(authCfg), handler.DeactivateWebhookClient)
	}
}
