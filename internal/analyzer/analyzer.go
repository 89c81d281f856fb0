package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/completion"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/platform"
)

const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 500

	errorMessageAnalysisFailed = "Failed to analyze website. Please try again later."
	errorMessageAnalysisParse  = "Failed to parse AI analysis response"

	logEventAnalysisCompletionFailed = "analysis_completion_failed"
	logEventAnalysisParseFailed      = "analysis_parse_failed"
	logFieldURL                      = "url"

	analysisSystemPrompt = `Analyze the website content and extract key information.
Pay special attention to identifying review platform profiles and links. A profile may be referenced by a plain domain name with an extension like .com, or by just a brand name; profile URLs follow a domain-or-brand-name convention, and you may draw on your own knowledge of the business beyond the supplied content. It's important to get the profile url right. For example for Resend.com on Trustpilot it's www.trustpilot.com/review/resend.com and for norman.finance on Trustpilot it's https://www.trustpilot.com/review/norman.finance
Return a JSON object with the following structure:
{
  "productName": "string (max 50 chars)",
  "description": "string (max 200 chars)",
  "features": ["string (max 100 chars each)", maximum 5 items],
  "pricing": ["string (max 50 chars each)", maximum 2 items],
  "targetAudience": "string (max 100 chars)",
  "uniqueSellingPoints": ["string (max 100 chars each)", maximum 3 items],
  "industry": "string (max 100 chars)",
  "reviewPlatforms": {
    "trustpilot": {"detected": boolean, "profileUrl": "string or null"},
    "capterra": {"detected": boolean, "profileUrl": "string or null"},
    "google": {"detected": boolean, "profileUrl": "string or null"},
    "g2": {"detected": boolean, "profileUrl": "string or null"},
    "yelp": {"detected": boolean, "profileUrl": "string or null"}
  }
}`
)

var (
	// ErrAnalysisFailed indicates the completion service could not produce an analysis.
	ErrAnalysisFailed = errors.New(errorMessageAnalysisFailed)
	// ErrAnalysisParse indicates the completion reply carried no parseable JSON object.
	ErrAnalysisParse = errors.New(errorMessageAnalysisParse)
)

// ContentExtractor produces an extracted snapshot for an absolute URL.
type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string) (model.ExtractedContent, error)
}

// Analyzer turns an extracted page snapshot into a structured analysis by way
// of one completion call.
type Analyzer struct {
	contentExtractor ContentExtractor
	completer        completion.Completer
	logger           *zap.Logger
}

// New creates an Analyzer.
func New(contentExtractor ContentExtractor, completer completion.Completer, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		contentExtractor: contentExtractor,
		completer:        completer,
		logger:           logger,
	}
}

type analysisPayload struct {
	URL string `json:"url"`
	model.ExtractedContent
}

// AnalyzeWebsite fetches and extracts the page, requests the structured
// analysis, and merges AI-provided profile URLs with directly detected links.
// Fetch failures propagate with their own taxonomy; completion failures
// surface uniformly as an analysis failure with no partial result.
func (websiteAnalyzer *Analyzer) AnalyzeWebsite(ctx context.Context, pageURL string) (model.AnalysisResult, error) {
	extracted, extractErr := websiteAnalyzer.contentExtractor.Extract(ctx, pageURL)
	if extractErr != nil {
		return model.AnalysisResult{}, extractErr
	}

	payloadBytes, marshalErr := json.Marshal(analysisPayload{URL: pageURL, ExtractedContent: extracted})
	if marshalErr != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, marshalErr)
	}

	replyText, completeErr := websiteAnalyzer.completer.Complete(ctx, completion.Request{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   string(payloadBytes),
		Temperature:  analysisTemperature,
		MaxTokens:    analysisMaxTokens,
	})
	if completeErr != nil {
		if websiteAnalyzer.logger != nil {
			websiteAnalyzer.logger.Error(logEventAnalysisCompletionFailed, zap.String(logFieldURL, pageURL), zap.Error(completeErr))
		}
		return model.AnalysisResult{}, ErrAnalysisFailed
	}

	var analysisResult model.AnalysisResult
	if decodeErr := completion.DecodeFirstJSONObject(replyText, &analysisResult); decodeErr != nil {
		if websiteAnalyzer.logger != nil {
			websiteAnalyzer.logger.Error(logEventAnalysisParseFailed, zap.String(logFieldURL, pageURL), zap.Error(decodeErr))
		}
		return model.AnalysisResult{}, ErrAnalysisParse
	}

	analysisResult.ReviewPlatforms = mergeReviewPlatforms(analysisResult.ReviewPlatforms, extracted.ReviewPlatformLinks)

	return analysisResult, nil
}

// mergeReviewPlatforms guarantees all five platform keys and applies the
// profile URL precedence: the AI-provided value when non-empty, otherwise the
// directly detected link, otherwise null. The detected flag is carried
// verbatim from the AI reply and deliberately not recomputed after the merge.
func mergeReviewPlatforms(aiPlatforms map[string]model.PlatformPresence, detectedLinks map[string]string) map[string]model.PlatformPresence {
	mergedPlatforms := make(map[string]model.PlatformPresence, len(platform.Keys()))
	for _, platformKey := range platform.Keys() {
		presence := aiPlatforms[platformKey]
		if presence.ProfileURL == nil || *presence.ProfileURL == "" {
			presence.ProfileURL = nil
			if detectedLink, linkDetected := detectedLinks[platformKey]; linkDetected {
				linkValue := detectedLink
				presence.ProfileURL = &linkValue
			}
		}
		mergedPlatforms[platformKey] = presence
	}
	return mergedPlatforms
}
