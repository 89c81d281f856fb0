package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/testutil"
)

func TestOpenDatabaseRequiresDriverName(t *testing.T) {
	_, err := storage.OpenDatabase(storage.Config{DataSourceName: "file:test?mode=memory"})
	require.ErrorIs(t, err, storage.ErrMissingDatabaseDriverName)
}

func TestOpenDatabaseRejectsUnsupportedDriver(t *testing.T) {
	_, err := storage.OpenDatabase(storage.Config{DriverName: "oracle", DataSourceName: "dsn"})
	require.ErrorIs(t, err, storage.ErrUnsupportedDatabaseDriver)
}

func TestOpenDatabaseRequiresDataSourceName(t *testing.T) {
	_, err := storage.OpenDatabase(storage.Config{DriverName: storage.DriverNameSQLite})
	require.ErrorIs(t, err, storage.ErrMissingDataSourceName)
}

func TestOpenDatabasePersistsReviewRequests(t *testing.T) {
	database, openErr := storage.OpenDatabase(testutil.NewSQLiteTestDatabase(t).Configuration())
	require.NoError(t, openErr)
	require.NoError(t, storage.AutoMigrate(database))
	database = testutil.ConfigureDatabaseLogger(t, database)

	profileURL := "https://www.trustpilot.com/review/example"
	storedRecord := model.ReviewRequest{
		ID:             storage.NewID(),
		Token:          "abcdefghijklmnopqrstuvwxyz012345",
		ReviewContent:  "Great product",
		RecipientName:  "Jamie",
		RecipientEmail: "jamie@example.com",
		SenderName:     "Acme Support",
		SenderEmail:    "support@acme.example.com",
		Platforms:      []model.SelectedPlatform{{ID: "trustpilot", ProfileURL: &profileURL}},
		Status:         model.ReviewRequestStatusPending,
		ProductName:    "Acme Analytics",
		Rating:         5,
		Title:          "Great",
	}
	require.NoError(t, database.Create(&storedRecord).Error)

	var loadedRecord model.ReviewRequest
	require.NoError(t, database.Where("token = ?", storedRecord.Token).First(&loadedRecord).Error)
	require.Equal(t, storedRecord.ID, loadedRecord.ID)
	require.Equal(t, model.ReviewRequestStatusPending, loadedRecord.Status)
	require.Len(t, loadedRecord.Platforms, 1)
	require.Equal(t, "trustpilot", loadedRecord.Platforms[0].ID)
	require.NotNil(t, loadedRecord.Platforms[0].ProfileURL)
	require.Equal(t, profileURL, *loadedRecord.Platforms[0].ProfileURL)
	require.False(t, loadedRecord.CreatedAt.IsZero())
}

func TestNewIDProducesUniqueIdentifiers(t *testing.T) {
	firstID := storage.NewID()
	secondID := storage.NewID()
	require.Len(t, firstID, 36)
	require.NotEqual(t, firstID, secondID)
}
