package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/completion"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
)

const (
	generationTemperature = 0.8
	generationMaxTokens   = 150

	toneNamePositive = "positive"
	toneNameNegative = "negative"

	ratingGuidancePositive      = "likely 4-5"
	ratingGuidanceNegative      = "likely 1-2"
	ratingGuidanceUnconstrained = "any"

	missingValueFallback      = "N/A"
	missingContextFallback    = "None provided"
	errorMessageGenerateBatch = "Failed to generate reviews"

	logEventReviewGenerationFailed = "review_generation_failed"
	logFieldReviewIndex            = "review_index"

	systemPromptFormat = `You are an expert review writer tasked with creating authentic-sounding product reviews based on provided analysis and a persona.
Your goal is to generate a single, concise review per request.

Follow these instructions precisely:
1.  Adopt the persona provided in the user message.
2.  Write a review with a tone: %s.
3.  The review MUST be between 2 and 4 sentences long.
4.  Mention 1 or 2 specific product features naturally within the review text.
5.  Briefly describe a plausible personal use case or benefit experienced by the persona.
6.  Generate a concise, relevant title for the review (max 50 characters).
7.  Assign a realistic rating (integer between 1 and 5) that aligns with the tone (%s).
8.  Ensure the review sounds genuine and avoids overly generic marketing language.

Respond ONLY with a valid JSON object containing the following keys:
{
  "content": "string (The review text itself, max 250 characters)",
  "rating": number (Integer between 1 and 5),
  "title": "string (The review title, max 50 characters)"
}

Do not include any other text, explanations, or formatting outside the JSON structure.`

	userPromptFormat = `Product Analysis & Persona Details:
------
Product Name: %s
Industry: %s
Key Features: %s
Target Audience: %s
Unique Selling Points: %s
Additional Context: %s

Reviewer Persona:
Name: %s
Age: %d
Occupation: %s
Location: %s
------
Generate the review based on the system instructions and the details above.`
)

// ErrGenerateBatch indicates a review batch failed; no partial list is ever returned.
var ErrGenerateBatch = errors.New(errorMessageGenerateBatch)

// BatchParams describes one review-generation batch.
type BatchParams struct {
	AnalysisResult    model.AnalysisResult
	ReviewCount       int
	Tone              string
	AdditionalContext string
}

// Synthesizer fabricates personas and generates one review per persona via
// the completion service.
type Synthesizer struct {
	completer        completion.Completer
	logger           *zap.Logger
	concurrencyLimit int
}

// NewSynthesizer creates a Synthesizer. A concurrency limit of one reproduces
// strictly sequential generation; higher limits fan out with bounded load on
// the completion service.
func NewSynthesizer(completer completion.Completer, logger *zap.Logger, concurrencyLimit int) *Synthesizer {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}
	return &Synthesizer{
		completer:        completer,
		logger:           logger,
		concurrencyLimit: concurrencyLimit,
	}
}

type generatedReviewPayload struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
}

// GenerateReviews produces exactly ReviewCount reviews in order, or fails as
// a whole. Any single iteration failure aborts the entire batch.
func (synthesizer *Synthesizer) GenerateReviews(ctx context.Context, params BatchParams) ([]model.GeneratedReview, error) {
	generatedReviews := make([]model.GeneratedReview, params.ReviewCount)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(synthesizer.concurrencyLimit)

	for reviewIndex := 0; reviewIndex < params.ReviewCount; reviewIndex++ {
		group.Go(func() error {
			generatedReview, generateErr := synthesizer.generateOne(groupCtx, params)
			if generateErr != nil {
				if synthesizer.logger != nil {
					synthesizer.logger.Error(logEventReviewGenerationFailed,
						zap.Int(logFieldReviewIndex, reviewIndex),
						zap.Error(generateErr),
					)
				}
				return generateErr
			}
			generatedReviews[reviewIndex] = generatedReview
			return nil
		})
	}

	if waitErr := group.Wait(); waitErr != nil {
		return nil, ErrGenerateBatch
	}

	return generatedReviews, nil
}

func (synthesizer *Synthesizer) generateOne(ctx context.Context, params BatchParams) (model.GeneratedReview, error) {
	persona := fabricatePersona()

	replyText, completeErr := synthesizer.completer.Complete(ctx, completion.Request{
		SystemPrompt: buildSystemPrompt(params.Tone),
		UserPrompt:   buildUserPrompt(params, persona),
		Temperature:  generationTemperature,
		MaxTokens:    generationMaxTokens,
		JSONOnly:     true,
	})
	if completeErr != nil {
		return model.GeneratedReview{}, completeErr
	}

	var payload generatedReviewPayload
	if decodeErr := completion.DecodeFirstJSONObject(replyText, &payload); decodeErr != nil {
		return model.GeneratedReview{}, decodeErr
	}

	return model.NewGeneratedReview(model.GeneratedReviewInput{
		Content:    payload.Content,
		Title:      payload.Title,
		AuthorName: persona.Name,
		Rating:     payload.Rating,
		Location:   persona.Location,
		Date:       recentReviewDate(),
	})
}

func buildSystemPrompt(tone string) string {
	ratingGuidance := ratingGuidanceUnconstrained
	switch strings.ToLower(tone) {
	case toneNamePositive:
		ratingGuidance = ratingGuidancePositive
	case toneNameNegative:
		ratingGuidance = ratingGuidanceNegative
	}
	return fmt.Sprintf(systemPromptFormat, strings.ToUpper(tone), ratingGuidance)
}

func buildUserPrompt(params BatchParams, persona model.Persona) string {
	analysisResult := params.AnalysisResult

	additionalContext := params.AdditionalContext
	if additionalContext == "" {
		additionalContext = missingContextFallback
	}

	return fmt.Sprintf(userPromptFormat,
		valueOrFallback(analysisResult.ProductName),
		valueOrFallback(analysisResult.Industry),
		joinedOrFallback(analysisResult.Features),
		valueOrFallback(analysisResult.TargetAudience),
		joinedOrFallback(analysisResult.UniqueSellingPoints),
		additionalContext,
		persona.Name,
		persona.Age,
		persona.Occupation,
		persona.Location,
	)
}

func valueOrFallback(value string) string {
	if value == "" {
		return missingValueFallback
	}
	return value
}

func joinedOrFallback(values []string) string {
	if len(values) == 0 {
		return missingValueFallback
	}
	return strings.Join(values, ", ")
}
