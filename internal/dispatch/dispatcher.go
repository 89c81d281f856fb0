package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
)

const (
	errorMessagePersistRequest = "Failed to save review request to database"
	errorMessageDeliverRequest = "Failed to send review request email"

	logEventPersistRequestFailed = "review_request_persist_failed"
	logEventDeliveryFailed       = "review_request_delivery_failed"
	logEventStatusUpdateFailed   = "review_request_status_update_failed"
	logFieldToken                = "token"
	logFieldRecipientEmail       = "recipient_email"

	columnNameStatus = "status"
	tokenWhereClause = "token = ?"
)

var (
	// ErrPersistRequest indicates the tracking record could not be written; no email is attempted.
	ErrPersistRequest = errors.New(errorMessagePersistRequest)
	// ErrDeliverRequest indicates the email transport failed after the record was persisted.
	ErrDeliverRequest = errors.New(errorMessageDeliverRequest)
)

// ReviewRequestInput carries the review being asked for.
type ReviewRequestInput struct {
	ReviewContent string `json:"reviewContent"`
	ProductName   string `json:"productName"`
	Rating        int    `json:"rating"`
	Title         string `json:"title"`
}

// EmailData carries the caller-supplied recipient, template strings, and
// platform selections for one review-request email.
type EmailData struct {
	ToName    string                   `json:"toName"`
	ToEmail   string                   `json:"toEmail"`
	Subject   string                   `json:"subject"`
	Content   string                   `json:"content"`
	Incentive string                   `json:"incentive"`
	Platforms []model.SelectedPlatform `json:"platforms"`
}

// Dispatcher turns one generated review plus recipient and platform
// selections into one outbound email and one durable tracking record.
type Dispatcher struct {
	database    *gorm.DB
	emailSender EmailSender
	sender      SenderIdentity
	logger      *zap.Logger
}

// NewDispatcher creates a Dispatcher. The sender identity comes from process
// configuration.
func NewDispatcher(database *gorm.DB, emailSender EmailSender, sender SenderIdentity, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		database:    database,
		emailSender: emailSender,
		sender:      sender,
		logger:      logger,
	}
}

// SendReviewRequest persists a pending tracking record, renders the templated
// HTML email with one deep link per resolvable platform, and sends it. The
// record is written before any delivery attempt; a persistence failure aborts
// with zero transport calls. On delivery failure the record status moves to
// failed on a best-effort basis and the surfaced error names delivery.
func (dispatcher *Dispatcher) SendReviewRequest(ctx context.Context, reviewRequest ReviewRequestInput, emailData EmailData) (model.ReviewRequest, error) {
	trackingToken, tokenErr := NewTrackingToken()
	if tokenErr != nil {
		return model.ReviewRequest{}, tokenErr
	}

	trackingRecord := model.ReviewRequest{
		ID:             storage.NewID(),
		Token:          trackingToken,
		ReviewContent:  reviewRequest.ReviewContent,
		RecipientName:  emailData.ToName,
		RecipientEmail: emailData.ToEmail,
		SenderName:     dispatcher.sender.Name,
		SenderEmail:    dispatcher.sender.Email,
		Platforms:      emailData.Platforms,
		Status:         model.ReviewRequestStatusPending,
		ProductName:    reviewRequest.ProductName,
		Rating:         reviewRequest.Rating,
		Title:          reviewRequest.Title,
	}

	if createErr := dispatcher.database.WithContext(ctx).Create(&trackingRecord).Error; createErr != nil {
		if dispatcher.logger != nil {
			dispatcher.logger.Error(logEventPersistRequestFailed, zap.String(logFieldToken, trackingToken), zap.Error(createErr))
		}
		return model.ReviewRequest{}, fmt.Errorf("%w: %v", ErrPersistRequest, createErr)
	}

	emailSubject := substituteStandardPlaceholders(emailData.Subject, emailData.ToName, reviewRequest.ProductName, emailData.Incentive, dispatcher.sender.Name)
	renderedBody := renderEmailBody(emailData.Content, emailData.ToName, reviewRequest.ProductName, emailData.Incentive, dispatcher.sender.Name, reviewRequest.ReviewContent)
	platformButtons := buildPlatformButtons(emailData.Platforms, trackingToken, dispatcher.logger)
	emailDocument := assembleEmail(emailSubject, renderedBody, platformButtons, dispatcher.sender.Name)

	if sendErr := dispatcher.emailSender.SendEmail(ctx, emailData.ToEmail, emailSubject, emailDocument); sendErr != nil {
		if dispatcher.logger != nil {
			dispatcher.logger.Error(logEventDeliveryFailed,
				zap.String(logFieldToken, trackingToken),
				zap.String(logFieldRecipientEmail, emailData.ToEmail),
				zap.Error(sendErr),
			)
		}
		dispatcher.markRequestFailed(ctx, trackingToken)
		return model.ReviewRequest{}, fmt.Errorf("%w: %v", ErrDeliverRequest, sendErr)
	}

	return trackingRecord, nil
}

// markRequestFailed moves the persisted record to the failed status. Its own
// failure is logged and swallowed so it never masks the delivery error.
func (dispatcher *Dispatcher) markRequestFailed(ctx context.Context, trackingToken string) {
	updateErr := dispatcher.database.WithContext(ctx).
		Model(&model.ReviewRequest{}).
		Where(tokenWhereClause, trackingToken).
		Update(columnNameStatus, model.ReviewRequestStatusFailed).Error
	if updateErr != nil && dispatcher.logger != nil {
		dispatcher.logger.Warn(logEventStatusUpdateFailed, zap.String(logFieldToken, trackingToken), zap.Error(updateErr))
	}
}
