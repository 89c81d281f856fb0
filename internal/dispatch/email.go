package dispatch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/platform"
)

const (
	placeholderCustomerName  = "{customerName}"
	placeholderProductName   = "{productName}"
	placeholderReviewContent = "{reviewContent}"
	placeholderIncentive     = "{incentive}"
	placeholderFromName      = "{fromName}"

	tokenQueryParameterName = "token"

	logEventPlatformLinkUnresolved = "platform_link_unresolved"
	logFieldPlatformID             = "platform_id"
	logFieldProfileURL             = "profile_url"

	styledReviewContentFormat = `<div style="margin: 24px 0; padding: 16px 20px; background-color: #f9f9f9; border-left: 5px solid #4a90e2; border-radius: 5px; font-style: italic; color: #555555; line-height: 1.6; font-size: 15px;">%s</div>`

	paragraphFormat = `<p style="margin: 0 0 1em 0; font-size: 16px; line-height: 1.5; color: #333333;">%s</p>`

	platformButtonFormat = `<a href="%s?%s=%s" target="_blank" style="display: inline-block; margin: 8px 8px 8px 0; padding: 12px 24px; background-color: #4a90e2; color: #ffffff !important; text-decoration: none !important; border-radius: 25px; font-weight: bold; font-size: 14px; border: none; cursor: pointer;">Leave a review on %s</a>`

	emailLayoutFormat = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f0f0f0;">
  <table width="100%%" border="0" cellspacing="0" cellpadding="0" style="background-color: #f0f0f0;">
    <tr>
      <td align="center">
        <table width="600" border="0" cellspacing="0" cellpadding="40" style="max-width: 600px; width: 100%%; background-color: #ffffff; margin: 20px auto; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
          <tr>
            <td>
              %s
              <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eeeeee;">
                <p style="margin: 0 0 15px 0; font-weight: bold; font-size: 16px; color: #333333;">Leave your review:</p>
                %s
              </div>
              <div style="margin-top: 40px; padding-top: 20px; border-top: 1px solid #eeeeee; font-size: 12px; color: #888888; text-align: center;">
                <p style="margin: 0 0 5px 0;">This email was sent by %s.</p>
                <p style="margin: 0;">If you have any questions, please contact us.</p>
              </div>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
)

// substituteStandardPlaceholders fills the standard template placeholders.
// Each placeholder is replaced at its first occurrence only.
func substituteStandardPlaceholders(templateText string, customerName string, productName string, incentive string, fromName string) string {
	substituted := strings.Replace(templateText, placeholderCustomerName, customerName, 1)
	substituted = strings.Replace(substituted, placeholderProductName, productName, 1)
	substituted = strings.Replace(substituted, placeholderIncentive, incentive, 1)
	substituted = strings.Replace(substituted, placeholderFromName, fromName, 1)
	return substituted
}

// renderEmailBody renders the caller-supplied body template. Standard
// placeholders are substituted first and the review slot last, so template
// text can never interpolate into the styled review block. Each remaining
// line is wrapped in a paragraph container.
func renderEmailBody(bodyTemplate string, customerName string, productName string, incentive string, fromName string, reviewContent string) string {
	substituted := substituteStandardPlaceholders(bodyTemplate, customerName, productName, incentive, fromName)

	styledReviewBlock := fmt.Sprintf(styledReviewContentFormat, reviewContent)
	substituted = strings.Replace(substituted, placeholderReviewContent, styledReviewBlock, 1)

	var bodyBuilder strings.Builder
	for _, line := range strings.Split(substituted, "\n") {
		bodyBuilder.WriteString(fmt.Sprintf(paragraphFormat, line))
	}
	return bodyBuilder.String()
}

// buildPlatformButtons resolves one review deep link per selected platform
// and renders a call-to-action button for each. A platform whose profile URL
// cannot be resolved is dropped from the email; the drop is logged and never
// fails the send. The tracking token rides on every resolved link.
func buildPlatformButtons(selectedPlatforms []model.SelectedPlatform, trackingToken string, logger *zap.Logger) string {
	var buttonsBuilder strings.Builder

	for _, selectedPlatform := range selectedPlatforms {
		profileURL := ""
		if selectedPlatform.ProfileURL != nil {
			profileURL = *selectedPlatform.ProfileURL
		}

		reviewURL := ""
		if definition, platformKnown := platform.Lookup(selectedPlatform.ID); platformKnown && profileURL != "" {
			reviewURL, _ = definition.ReviewURL(profileURL)
		}

		if reviewURL == "" {
			if logger != nil {
				logger.Warn(logEventPlatformLinkUnresolved,
					zap.String(logFieldPlatformID, selectedPlatform.ID),
					zap.String(logFieldProfileURL, profileURL),
				)
			}
			continue
		}

		buttonsBuilder.WriteString(fmt.Sprintf(platformButtonFormat,
			reviewURL,
			tokenQueryParameterName,
			trackingToken,
			platformDisplayName(selectedPlatform.ID),
		))
	}

	return buttonsBuilder.String()
}

// assembleEmail embeds the rendered body and platform buttons into the fixed
// responsive layout.
func assembleEmail(subject string, renderedBody string, platformButtons string, fromName string) string {
	return fmt.Sprintf(emailLayoutFormat, subject, renderedBody, platformButtons, fromName)
}

func platformDisplayName(platformID string) string {
	if platformID == "" {
		return platformID
	}
	return strings.ToUpper(platformID[:1]) + platformID[1:]
}
