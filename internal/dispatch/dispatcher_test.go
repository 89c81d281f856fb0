package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/dispatch"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/testutil"
)

var errTransportDown = errors.New("transport down")

type recordingEmailSender struct {
	sendErr        error
	sentRecipients []string
	sentSubjects   []string
	sentBodies     []string
}

func (sender *recordingEmailSender) SendEmail(ctx context.Context, recipient string, subject string, htmlBody string) error {
	sender.sentRecipients = append(sender.sentRecipients, recipient)
	sender.sentSubjects = append(sender.sentSubjects, subject)
	sender.sentBodies = append(sender.sentBodies, htmlBody)
	return sender.sendErr
}

func newDispatcherTestDatabase(testingT *testing.T) *gorm.DB {
	testingT.Helper()

	database, openErr := storage.OpenDatabase(testutil.NewSQLiteTestDatabase(testingT).Configuration())
	require.NoError(testingT, openErr)
	require.NoError(testingT, storage.AutoMigrate(database))
	return testutil.ConfigureDatabaseLogger(testingT, database)
}

func testSenderIdentity() dispatch.SenderIdentity {
	return dispatch.SenderIdentity{Name: "Acme Support", Email: "support@acme.example.com"}
}

func testEmailData() dispatch.EmailData {
	trustpilotProfile := "https://www.trustpilot.com/review/example"
	return dispatch.EmailData{
		ToName:    "Jamie",
		ToEmail:   "jamie@example.com",
		Subject:   "Quick favor, {customerName}?",
		Content:   "Hi {customerName},\nHere is the draft:\n{reviewContent}\nThanks, {fromName}",
		Incentive: "10% off next month",
		Platforms: []model.SelectedPlatform{{ID: "trustpilot", ProfileURL: &trustpilotProfile}},
	}
}

func testReviewRequestInput() dispatch.ReviewRequestInput {
	return dispatch.ReviewRequestInput{
		ReviewContent: "The dashboards saved me hours every week.",
		ProductName:   "Acme Analytics",
		Rating:        5,
		Title:         "Saved me hours",
	}
}

func TestSendReviewRequestPersistsPendingRecordAndSendsEmail(t *testing.T) {
	database := newDispatcherTestDatabase(t)
	emailSender := &recordingEmailSender{}
	dispatcher := dispatch.NewDispatcher(database, emailSender, testSenderIdentity(), zap.NewNop())

	trackingRecord, err := dispatcher.SendReviewRequest(context.Background(), testReviewRequestInput(), testEmailData())
	require.NoError(t, err)

	require.Len(t, trackingRecord.Token, 32)
	require.Equal(t, model.ReviewRequestStatusPending, trackingRecord.Status)
	require.Equal(t, "Jamie", trackingRecord.RecipientName)
	require.Equal(t, "Acme Support", trackingRecord.SenderName)

	var persistedRecord model.ReviewRequest
	require.NoError(t, database.Where("token = ?", trackingRecord.Token).First(&persistedRecord).Error)
	require.Equal(t, model.ReviewRequestStatusPending, persistedRecord.Status)
	require.Equal(t, "Acme Analytics", persistedRecord.ProductName)
	require.Len(t, persistedRecord.Platforms, 1)
	require.Equal(t, "trustpilot", persistedRecord.Platforms[0].ID)

	require.Len(t, emailSender.sentRecipients, 1)
	require.Equal(t, "jamie@example.com", emailSender.sentRecipients[0])
	require.Equal(t, "Quick favor, Jamie?", emailSender.sentSubjects[0])

	sentBody := emailSender.sentBodies[0]
	require.Contains(t, sentBody, "Hi Jamie,")
	require.Contains(t, sentBody, "The dashboards saved me hours every week.")
	require.Contains(t, sentBody, "Thanks, Acme Support")
	require.Contains(t, sentBody, "https://www.trustpilot.com/evaluate/example?token="+trackingRecord.Token)
}

func TestSendReviewRequestAbortsWithoutSendOnPersistenceFailure(t *testing.T) {
	// An un-migrated database makes the insert fail before any transport call.
	database, openErr := storage.OpenDatabase(testutil.NewSQLiteTestDatabase(t).Configuration())
	require.NoError(t, openErr)
	database = testutil.ConfigureDatabaseLogger(t, database)

	emailSender := &recordingEmailSender{}
	dispatcher := dispatch.NewDispatcher(database, emailSender, testSenderIdentity(), zap.NewNop())

	_, err := dispatcher.SendReviewRequest(context.Background(), testReviewRequestInput(), testEmailData())
	require.ErrorIs(t, err, dispatch.ErrPersistRequest)
	require.Empty(t, emailSender.sentRecipients)
}

func TestSendReviewRequestMarksRecordFailedOnDeliveryFailure(t *testing.T) {
	database := newDispatcherTestDatabase(t)
	emailSender := &recordingEmailSender{sendErr: errTransportDown}
	dispatcher := dispatch.NewDispatcher(database, emailSender, testSenderIdentity(), zap.NewNop())

	_, err := dispatcher.SendReviewRequest(context.Background(), testReviewRequestInput(), testEmailData())
	require.ErrorIs(t, err, dispatch.ErrDeliverRequest)
	require.Len(t, emailSender.sentRecipients, 1)

	var persistedRecord model.ReviewRequest
	require.NoError(t, database.First(&persistedRecord).Error)
	require.Equal(t, model.ReviewRequestStatusFailed, persistedRecord.Status)
}

func TestSendReviewRequestKeepsUnresolvablePlatformOutOfEmailButInRecord(t *testing.T) {
	database := newDispatcherTestDatabase(t)
	emailSender := &recordingEmailSender{}
	dispatcher := dispatch.NewDispatcher(database, emailSender, testSenderIdentity(), zap.NewNop())

	emailData := testEmailData()
	emailData.Platforms = append(emailData.Platforms, model.SelectedPlatform{ID: "capterra", ProfileURL: nil})

	trackingRecord, err := dispatcher.SendReviewRequest(context.Background(), testReviewRequestInput(), emailData)
	require.NoError(t, err)
	require.Len(t, trackingRecord.Platforms, 2)

	sentBody := emailSender.sentBodies[0]
	require.Contains(t, sentBody, "Trustpilot")
	require.NotContains(t, sentBody, "Capterra")
}
