package main

import (
	"bytes"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
)

const (
	testPlaceholderDatabaseDSN      = "file:config-test?mode=memory"
	testPlaceholderCompletionAPIKey = "completion-key"
	testPlaceholderEmailAPIKey      = "email-key"
	testPlaceholderSenderName       = "Acme Support"
	testPlaceholderSenderEmail      = "support@acme.example.com"
	testFlagIndicator               = "--"
	testUsagePrefix                 = "Usage:"
)

func completeServerConfig() ServerConfig {
	return ServerConfig{
		ApplicationAddress: defaultApplicationAddress,
		DatabaseDriver:     storage.DriverNameSQLite,
		DatabaseDSN:        testPlaceholderDatabaseDSN,
		CompletionAPIKey:   testPlaceholderCompletionAPIKey,
		EmailAPIKey:        testPlaceholderEmailAPIKey,
		SenderName:         testPlaceholderSenderName,
		SenderEmail:        testPlaceholderSenderEmail,
		ReviewConcurrency:  defaultReviewConcurrency,
	}
}

func TestEnsureRequiredConfigurationAcceptsCompleteConfig(t *testing.T) {
	if validationErr := ensureRequiredConfiguration(completeServerConfig()); validationErr != nil {
		t.Fatalf("unexpected validation error: %v", validationErr)
	}
}

func TestEnsureRequiredConfigurationNamesEachMissingParameter(t *testing.T) {
	testCases := []struct {
		name                string
		mutate              func(*ServerConfig)
		expectedMissingFlag string
	}{
		{
			name:                "missing database dsn",
			mutate:              func(configuration *ServerConfig) { configuration.DatabaseDSN = "" },
			expectedMissingFlag: flagNameDatabaseDSN,
		},
		{
			name:                "missing completion api key",
			mutate:              func(configuration *ServerConfig) { configuration.CompletionAPIKey = "" },
			expectedMissingFlag: flagNameCompletionAPIKey,
		},
		{
			name:                "missing email api key",
			mutate:              func(configuration *ServerConfig) { configuration.EmailAPIKey = "" },
			expectedMissingFlag: flagNameEmailAPIKey,
		},
		{
			name:                "missing sender name",
			mutate:              func(configuration *ServerConfig) { configuration.SenderName = "" },
			expectedMissingFlag: flagNameSenderName,
		},
		{
			name:                "missing sender email",
			mutate:              func(configuration *ServerConfig) { configuration.SenderEmail = "" },
			expectedMissingFlag: flagNameSenderEmail,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configuration := completeServerConfig()
			testCase.mutate(&configuration)

			validationErr := ensureRequiredConfiguration(configuration)
			if validationErr == nil {
				t.Fatalf("expected validation error for %s", testCase.name)
			}
			if !strings.Contains(validationErr.Error(), missingConfigurationMessage) {
				t.Fatalf("expected error to mention missing configuration, got: %v", validationErr)
			}
			if !strings.Contains(validationErr.Error(), testCase.expectedMissingFlag) {
				t.Fatalf("expected error to name %s, got: %v", testCase.expectedMissingFlag, validationErr)
			}
		})
	}
}

func TestEnsureRequiredConfigurationListsAllMissingParameters(t *testing.T) {
	validationErr := ensureRequiredConfiguration(ServerConfig{})
	if validationErr == nil {
		t.Fatalf("expected validation error for empty configuration")
	}

	for _, expectedFlagName := range []string{
		flagNameDatabaseDSN,
		flagNameCompletionAPIKey,
		flagNameEmailAPIKey,
		flagNameSenderName,
		flagNameSenderEmail,
	} {
		if !strings.Contains(validationErr.Error(), expectedFlagName) {
			t.Fatalf("expected error to list %s, got: %v", expectedFlagName, validationErr)
		}
	}
}

func TestServerCommandMissingConfigurationShowsHelp(t *testing.T) {
	t.Setenv(environmentKeyDatabaseDSN, "")
	t.Setenv(environmentKeyCompletionAPIKey, testPlaceholderCompletionAPIKey)
	t.Setenv(environmentKeyEmailAPIKey, testPlaceholderEmailAPIKey)
	t.Setenv(environmentKeySenderName, testPlaceholderSenderName)
	t.Setenv(environmentKeySenderEmail, testPlaceholderSenderEmail)

	databaseOpenerStub := func(configuration storage.Config) (*gorm.DB, error) {
		t.Fatalf("database opener invoked with %s", configuration.DataSourceName)
		return nil, nil
	}

	application := NewServerApplication().WithDatabaseOpener(databaseOpenerStub)
	command, commandErr := application.Command()
	if commandErr != nil {
		t.Fatalf("unexpected command construction error: %v", commandErr)
	}

	commandOutput := &bytes.Buffer{}
	command.SetOut(commandOutput)
	command.SetErr(commandOutput)

	executionErr := command.Execute()
	if executionErr == nil {
		t.Fatalf("expected error for missing configuration")
	}

	combinedOutput := commandOutput.String()
	if !strings.Contains(combinedOutput, missingConfigurationMessage) {
		t.Fatalf("expected combined output to mention missing configuration: %s", combinedOutput)
	}
	if !strings.Contains(combinedOutput, testUsagePrefix) {
		t.Fatalf("expected combined output to include usage instructions: %s", combinedOutput)
	}

	expectedFlagIndicator := testFlagIndicator + flagNameDatabaseDSN
	if !strings.Contains(combinedOutput, expectedFlagIndicator) {
		t.Fatalf("expected help output to include flag %s, actual output: %s", expectedFlagIndicator, combinedOutput)
	}
}
