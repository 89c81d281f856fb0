package main

import (
	"github.com/gin-gonic/gin"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/httpapi"
)

const (
	apiRoutePrefix            = "/api"
	routeAnalyzeWebsite       = "/analyze-website"
	routeGenerateReviews      = "/generate-reviews"
	routeAIReviews            = "/ai-reviews"
	routeSendReviewRequest    = "/send-review-request"
	routeGenerateEmailContent = "/generate-email-content"
)

// registerRoutes wires the pipeline endpoints behind the rate limiter.
func registerRoutes(router *gin.Engine, pipelineHandlers *httpapi.Handlers, rateLimiter *httpapi.RateLimiter) {
	apiGroup := router.Group(apiRoutePrefix)
	apiGroup.Use(rateLimiter.Middleware())

	apiGroup.POST(routeAnalyzeWebsite, pipelineHandlers.AnalyzeWebsite)
	apiGroup.POST(routeGenerateReviews, pipelineHandlers.GenerateReviews)
	apiGroup.POST(routeAIReviews, pipelineHandlers.AIReviews)
	apiGroup.POST(routeSendReviewRequest, pipelineHandlers.SendReviewRequest)
	apiGroup.POST(routeGenerateEmailContent, pipelineHandlers.GenerateEmailContent)
}
