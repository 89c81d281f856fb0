package httpapi

import (
	"context"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/dispatch"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/reviews"
)

const (
	minimumReviewCount = 1
	maximumReviewCount = 10

	urlSchemeHTTP  = "http"
	urlSchemeHTTPS = "https"

	errorMessageInvalidJSON              = "Invalid JSON payload"
	errorMessageInvalidURL               = "Invalid URL provided"
	errorMessageMissingParameters        = "Missing required parameters"
	errorMessageInvalidReviewCount       = "Review count must be between 1 and 10"
	errorMessageMissingRequestFields     = "Missing required fields: reviewRequest and emailData"
	errorMessageMissingEmailFieldsPrefix = "Missing required email fields: "
	errorMessageNoPlatformSelected       = "At least one review platform must be selected"
	errorMessageSendReviewRequest        = "Failed to send review request"

	emailFieldNameToEmail   = "toEmail"
	emailFieldNameToName    = "toName"
	emailFieldNameSubject   = "subject"
	emailFieldNameContent   = "content"
	emailFieldNamePlatforms = "platforms"

	responseFieldError    = "error"
	responseFieldDetails  = "details"
	responseFieldSuccess  = "success"
	responseFieldData     = "data"
	responseFieldReviews  = "reviews"
	responseFieldAnalysis = "analysis"
	responseFieldContent  = "content"
)

// WebsiteAnalyzer produces a structured analysis for one website URL.
type WebsiteAnalyzer interface {
	AnalyzeWebsite(ctx context.Context, pageURL string) (model.AnalysisResult, error)
}

// ReviewGenerator produces a batch of generated reviews.
type ReviewGenerator interface {
	GenerateReviews(ctx context.Context, params reviews.BatchParams) ([]model.GeneratedReview, error)
}

// RequestDispatcher sends one review-request email with a tracking record.
type RequestDispatcher interface {
	SendReviewRequest(ctx context.Context, reviewRequest dispatch.ReviewRequestInput, emailData dispatch.EmailData) (model.ReviewRequest, error)
}

// EmailContentGenerator produces email templates and incentive messages.
type EmailContentGenerator interface {
	GenerateEmailContent(ctx context.Context, contentType string, productName string, contextText string) (string, error)
}

// Handlers exposes the review-intelligence pipeline over HTTP.
type Handlers struct {
	websiteAnalyzer       WebsiteAnalyzer
	reviewGenerator       ReviewGenerator
	requestDispatcher     RequestDispatcher
	emailContentGenerator EmailContentGenerator
	logger                *zap.Logger
}

// NewHandlers creates the HTTP handlers with their injected pipeline components.
func NewHandlers(websiteAnalyzer WebsiteAnalyzer, reviewGenerator ReviewGenerator, requestDispatcher RequestDispatcher, emailContentGenerator EmailContentGenerator, logger *zap.Logger) *Handlers {
	return &Handlers{
		websiteAnalyzer:       websiteAnalyzer,
		reviewGenerator:       reviewGenerator,
		requestDispatcher:     requestDispatcher,
		emailContentGenerator: emailContentGenerator,
		logger:                logger,
	}
}

type analyzeWebsiteRequest struct {
	URL string `json:"url"`
}

type generateReviewsRequest struct {
	AnalysisResult    model.AnalysisResult `json:"analysisResult"`
	ReviewCount       int                  `json:"reviewCount"`
	Tone              string               `json:"tone"`
	AdditionalContext string               `json:"additionalContext"`
}

type aiReviewsRequest struct {
	URL               string `json:"url"`
	ReviewCount       int    `json:"reviewCount"`
	Tone              string `json:"tone"`
	AdditionalContext string `json:"additionalContext"`
}

type sendReviewRequestPayload struct {
	ReviewRequest *dispatch.ReviewRequestInput `json:"reviewRequest"`
	EmailData     *dispatch.EmailData          `json:"emailData"`
}

type generateEmailContentRequest struct {
	Type        string `json:"type"`
	ProductName string `json:"productName"`
	Context     string `json:"context"`
}

// AnalyzeWebsite handles POST /analyze-website.
func (handlers *Handlers) AnalyzeWebsite(context *gin.Context) {
	var payload analyzeWebsiteRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidJSON})
		return
	}

	if !isValidAbsoluteURL(payload.URL) {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidURL})
		return
	}

	analysisResult, analyzeErr := handlers.websiteAnalyzer.AnalyzeWebsite(context.Request.Context(), payload.URL)
	if analyzeErr != nil {
		context.JSON(500, gin.H{responseFieldError: analyzeErr.Error()})
		return
	}

	context.JSON(200, analysisResult)
}

// GenerateReviews handles POST /generate-reviews.
func (handlers *Handlers) GenerateReviews(context *gin.Context) {
	var payload generateReviewsRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidJSON})
		return
	}

	if payload.ReviewCount == 0 || strings.TrimSpace(payload.Tone) == "" {
		context.JSON(400, gin.H{responseFieldError: errorMessageMissingParameters})
		return
	}
	if payload.ReviewCount < minimumReviewCount || payload.ReviewCount > maximumReviewCount {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidReviewCount})
		return
	}

	generatedReviews, generateErr := handlers.reviewGenerator.GenerateReviews(context.Request.Context(), reviews.BatchParams{
		AnalysisResult:    payload.AnalysisResult,
		ReviewCount:       payload.ReviewCount,
		Tone:              payload.Tone,
		AdditionalContext: payload.AdditionalContext,
	})
	if generateErr != nil {
		context.JSON(500, gin.H{responseFieldError: generateErr.Error()})
		return
	}

	context.JSON(200, gin.H{responseFieldReviews: generatedReviews})
}

// AIReviews handles POST /ai-reviews, composing analysis and generation.
func (handlers *Handlers) AIReviews(context *gin.Context) {
	var payload aiReviewsRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidJSON})
		return
	}

	if payload.URL == "" || payload.ReviewCount == 0 || strings.TrimSpace(payload.Tone) == "" {
		context.JSON(400, gin.H{responseFieldError: errorMessageMissingParameters})
		return
	}
	if payload.ReviewCount < minimumReviewCount || payload.ReviewCount > maximumReviewCount {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidReviewCount})
		return
	}
	if !isValidAbsoluteURL(payload.URL) {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidURL})
		return
	}

	analysisResult, analyzeErr := handlers.websiteAnalyzer.AnalyzeWebsite(context.Request.Context(), payload.URL)
	if analyzeErr != nil {
		context.JSON(500, gin.H{responseFieldError: analyzeErr.Error()})
		return
	}

	generatedReviews, generateErr := handlers.reviewGenerator.GenerateReviews(context.Request.Context(), reviews.BatchParams{
		AnalysisResult:    analysisResult,
		ReviewCount:       payload.ReviewCount,
		Tone:              payload.Tone,
		AdditionalContext: payload.AdditionalContext,
	})
	if generateErr != nil {
		context.JSON(500, gin.H{responseFieldError: generateErr.Error()})
		return
	}

	context.JSON(200, gin.H{
		responseFieldAnalysis: analysisResult,
		responseFieldReviews:  generatedReviews,
	})
}

// SendReviewRequest handles POST /send-review-request.
func (handlers *Handlers) SendReviewRequest(context *gin.Context) {
	var payload sendReviewRequestPayload
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidJSON})
		return
	}

	if payload.ReviewRequest == nil || payload.EmailData == nil {
		context.JSON(400, gin.H{responseFieldError: errorMessageMissingRequestFields})
		return
	}

	if missingFields := missingEmailFields(*payload.EmailData); len(missingFields) > 0 {
		context.JSON(400, gin.H{responseFieldError: errorMessageMissingEmailFieldsPrefix + strings.Join(missingFields, ", ")})
		return
	}

	if len(payload.EmailData.Platforms) == 0 {
		context.JSON(400, gin.H{responseFieldError: errorMessageNoPlatformSelected})
		return
	}

	trackingRecord, sendErr := handlers.requestDispatcher.SendReviewRequest(context.Request.Context(), *payload.ReviewRequest, *payload.EmailData)
	if sendErr != nil {
		context.JSON(500, gin.H{
			responseFieldError:   errorMessageSendReviewRequest,
			responseFieldDetails: sendErr.Error(),
		})
		return
	}

	context.JSON(200, gin.H{
		responseFieldSuccess: true,
		responseFieldData:    trackingRecord,
	})
}

// GenerateEmailContent handles POST /generate-email-content.
func (handlers *Handlers) GenerateEmailContent(context *gin.Context) {
	var payload generateEmailContentRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(400, gin.H{responseFieldError: errorMessageInvalidJSON})
		return
	}

	generatedContent, generateErr := handlers.emailContentGenerator.GenerateEmailContent(context.Request.Context(), payload.Type, payload.ProductName, payload.Context)
	if generateErr != nil {
		context.JSON(500, gin.H{responseFieldError: generateErr.Error()})
		return
	}

	context.JSON(200, gin.H{responseFieldContent: generatedContent})
}

func missingEmailFields(emailData dispatch.EmailData) []string {
	var missingFields []string
	if strings.TrimSpace(emailData.ToEmail) == "" {
		missingFields = append(missingFields, emailFieldNameToEmail)
	}
	if strings.TrimSpace(emailData.ToName) == "" {
		missingFields = append(missingFields, emailFieldNameToName)
	}
	if strings.TrimSpace(emailData.Subject) == "" {
		missingFields = append(missingFields, emailFieldNameSubject)
	}
	if strings.TrimSpace(emailData.Content) == "" {
		missingFields = append(missingFields, emailFieldNameContent)
	}
	if emailData.Platforms == nil {
		missingFields = append(missingFields, emailFieldNamePlatforms)
	}
	return missingFields
}

func isValidAbsoluteURL(rawURL string) bool {
	parsedURL, parseErr := url.Parse(strings.TrimSpace(rawURL))
	if parseErr != nil {
		return false
	}
	if parsedURL.Scheme != urlSchemeHTTP && parsedURL.Scheme != urlSchemeHTTPS {
		return false
	}
	return parsedURL.Host != ""
}
