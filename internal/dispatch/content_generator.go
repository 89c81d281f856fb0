package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/completion"
)

const (
	// ContentTypeIncentive selects the short incentive-message prompt; any
	// other type produces the full email body template.
	ContentTypeIncentive = "incentive"

	contentTemperature = 0.7
	contentMaxTokens   = 300

	errorMessageGenerateEmailContent = "Failed to generate email content"
	logEventEmailContentFailed       = "email_content_generation_failed"
	logFieldContentType              = "content_type"

	contentSystemPrompt = "You are a helpful assistant specialized in writing clear, concise, and effective customer communication, specifically for requesting product reviews."

	incentivePromptFormat = `Generate a short (1-2 sentences), friendly, and compelling incentive message encouraging a customer to leave a review for the product: "%s".

Key requirements:
- Be appreciative of their business.
- Clearly state a specific incentive (e.g., discount code, early access, freebie).
- Briefly mention how/when they will receive the incentive after leaving the review.
- Maintain a positive and persuasive tone.

Product context (use this to tailor the message if relevant):
%s

Output ONLY the incentive message text.`

	templatePromptFormat = `Generate a concise and professional email template for requesting a product review for "%s".

Key requirements:
- Address the customer warmly (use placeholder {customerName}).
- Express gratitude for their purchase/business.
- Briefly explain the value of their feedback (e.g., helps improve, helps others).
- Include placeholders for:
    - {customerName}
    - {productName}
    - {reviewContent} (This is where an AI-suggested review text might be inserted)
    - {incentive} (This is where the incentive message, if any, will be inserted)
    - {fromName} (Sender's name)
- Keep the overall tone friendly and professional.
- Ensure the email is concise and easy to read.
- DO NOT include a subject line.
- Output ONLY the email body content.

Product context (use this to make the request more specific):
%s`
)

// ErrGenerateEmailContent indicates the email-content completion failed.
var ErrGenerateEmailContent = errors.New(errorMessageGenerateEmailContent)

// ContentGenerator produces email template bodies and incentive messages via
// single free-text completion calls.
type ContentGenerator struct {
	completer completion.Completer
	logger    *zap.Logger
}

// NewContentGenerator creates a ContentGenerator.
func NewContentGenerator(completer completion.Completer, logger *zap.Logger) *ContentGenerator {
	return &ContentGenerator{completer: completer, logger: logger}
}

// GenerateEmailContent returns either a short incentive message or a full
// email body template for the given product and context.
func (generator *ContentGenerator) GenerateEmailContent(ctx context.Context, contentType string, productName string, contextText string) (string, error) {
	promptFormat := templatePromptFormat
	if contentType == ContentTypeIncentive {
		promptFormat = incentivePromptFormat
	}

	replyText, completeErr := generator.completer.Complete(ctx, completion.Request{
		SystemPrompt: contentSystemPrompt,
		UserPrompt:   fmt.Sprintf(promptFormat, productName, contextText),
		Temperature:  contentTemperature,
		MaxTokens:    contentMaxTokens,
	})
	if completeErr != nil {
		if generator.logger != nil {
			generator.logger.Error(logEventEmailContentFailed, zap.String(logFieldContentType, contentType), zap.Error(completeErr))
		}
		return "", ErrGenerateEmailContent
	}

	return strings.TrimSpace(replyText), nil
}
