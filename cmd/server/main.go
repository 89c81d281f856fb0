package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/analyzer"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/completion"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/dispatch"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/extractor"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/httpapi"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/reviews"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
)

const (
	commandUseName              = "server"
	commandShortDescription     = "Run the review intelligence server"
	commandLongDescription      = "Launch the HTTP server that analyzes websites, generates reviews, and dispatches review-request emails"
	missingConfigurationMessage = "missing required configuration"
	loggerCreationErrorMessage  = "logger"
	logEventListening           = "listening"
	logFieldAddress             = "addr"

	flagNameApplicationAddress = "app-addr"
	flagNameDatabaseDriver     = "db-driver"
	flagNameDatabaseDSN        = "db-dsn"
	flagNameCompletionAPIKey   = "completion-api-key"
	flagNameCompletionBaseURL  = "completion-base-url"
	flagNameCompletionModel    = "completion-model"
	flagNameEmailAPIKey        = "email-api-key"
	flagNameSenderName         = "from-name"
	flagNameSenderEmail        = "from-email"
	flagNameReviewConcurrency  = "review-concurrency"

	flagUsageApplicationAddress = "address for the HTTP server to listen on"
	flagUsageDatabaseDriver     = "database driver name (sqlite or postgres)"
	flagUsageDatabaseDSN        = "database connection string"
	flagUsageCompletionAPIKey   = "API key for the completion service"
	flagUsageCompletionBaseURL  = "base URL override for the completion service"
	flagUsageCompletionModel    = "model name for the completion service"
	flagUsageEmailAPIKey        = "API key for the transactional email service"
	flagUsageSenderName         = "display name for outbound review-request emails"
	flagUsageSenderEmail        = "sender address for outbound review-request emails"
	flagUsageReviewConcurrency  = "bounded concurrency for review generation"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyDatabaseDriver     = "DB_DRIVER"
	environmentKeyDatabaseDSN        = "DB_DSN"
	environmentKeyCompletionAPIKey   = "COMPLETION_API_KEY"
	environmentKeyCompletionBaseURL  = "COMPLETION_BASE_URL"
	environmentKeyCompletionModel    = "COMPLETION_MODEL"
	environmentKeyEmailAPIKey        = "EMAIL_API_KEY"
	environmentKeySenderName         = "FROM_NAME"
	environmentKeySenderEmail        = "FROM_EMAIL"
	environmentKeyReviewConcurrency  = "REVIEW_CONCURRENCY"

	defaultApplicationAddress = ":8080"
	defaultDatabaseDriver     = storage.DriverNameSQLite
	defaultReviewConcurrency  = 1

	corsOriginWildcard      = "*"
	corsHeaderAuthorization = "Authorization"
	corsHeaderContentType   = "Content-Type"
	httpMethodGet           = "GET"
	httpMethodOptions       = "OPTIONS"
	httpMethodPost          = "POST"

	loggerContextOpenDatabase     = "open_db"
	loggerContextAutoMigrate      = "migrate"
	loggerContextCompletionClient = "completion_client"
	loggerContextServer           = "server"

	readHeaderTimeoutSeconds     = 5
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
	flagNotDefinedMessage        = "flag %s not defined"
	environmentConfigurationErr  = "failed to apply environment configuration"
)

var (
	corsAllowedMethods = []string{httpMethodPost, httpMethodGet, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderAuthorization, corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType}
	corsAllowOrigins   = []string{corsOriginWildcard}
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress string
	DatabaseDriver     string
	DatabaseDSN        string
	CompletionAPIKey   string
	CompletionBaseURL  string
	CompletionModel    string
	EmailAPIKey        string
	SenderName         string
	SenderEmail        string
	ReviewConcurrency  int
}

// DatabaseOpener opens a database connection using the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

type flagBinding struct {
	environmentKey string
	flagName       string
	usage          string
	defaultValue   string
}

var serverFlagBindings = []flagBinding{
	{environmentKeyApplicationAddress, flagNameApplicationAddress, flagUsageApplicationAddress, defaultApplicationAddress},
	{environmentKeyDatabaseDriver, flagNameDatabaseDriver, flagUsageDatabaseDriver, defaultDatabaseDriver},
	{environmentKeyDatabaseDSN, flagNameDatabaseDSN, flagUsageDatabaseDSN, ""},
	{environmentKeyCompletionAPIKey, flagNameCompletionAPIKey, flagUsageCompletionAPIKey, ""},
	{environmentKeyCompletionBaseURL, flagNameCompletionBaseURL, flagUsageCompletionBaseURL, ""},
	{environmentKeyCompletionModel, flagNameCompletionModel, flagUsageCompletionModel, ""},
	{environmentKeyEmailAPIKey, flagNameEmailAPIKey, flagUsageEmailAPIKey, ""},
	{environmentKeySenderName, flagNameSenderName, flagUsageSenderName, ""},
	{environmentKeySenderEmail, flagNameSenderEmail, flagUsageSenderEmail, ""},
}

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyReviewConcurrency, defaultReviewConcurrency)
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	for _, binding := range serverFlagBindings {
		application.configurationLoader.SetDefault(binding.environmentKey, binding.defaultValue)
		commandFlags.String(binding.flagName, binding.defaultValue, binding.usage)

		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}

		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	commandFlags.Int(flagNameReviewConcurrency, defaultReviewConcurrency, flagUsageReviewConcurrency)
	if bindErr := application.bindFlag(commandFlags, environmentKeyReviewConcurrency, flagNameReviewConcurrency); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationErr, setErr)
	}

	return nil
}

func (application *ServerApplication) loadConfiguration() ServerConfig {
	return ServerConfig{
		ApplicationAddress: application.configurationLoader.GetString(environmentKeyApplicationAddress),
		DatabaseDriver:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDriver)),
		DatabaseDSN:        strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDSN)),
		CompletionAPIKey:   strings.TrimSpace(application.configurationLoader.GetString(environmentKeyCompletionAPIKey)),
		CompletionBaseURL:  strings.TrimSpace(application.configurationLoader.GetString(environmentKeyCompletionBaseURL)),
		CompletionModel:    strings.TrimSpace(application.configurationLoader.GetString(environmentKeyCompletionModel)),
		EmailAPIKey:        strings.TrimSpace(application.configurationLoader.GetString(environmentKeyEmailAPIKey)),
		SenderName:         strings.TrimSpace(application.configurationLoader.GetString(environmentKeySenderName)),
		SenderEmail:        strings.TrimSpace(application.configurationLoader.GetString(environmentKeySenderEmail)),
		ReviewConcurrency:  application.configurationLoader.GetInt(environmentKeyReviewConcurrency),
	}
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadConfiguration()
	if validationErr := ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     serverConfig.DatabaseDriver,
		DataSourceName: serverConfig.DatabaseDSN,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	completionClient, completionErr := completion.NewClient(completion.Config{
		APIKey:  serverConfig.CompletionAPIKey,
		BaseURL: serverConfig.CompletionBaseURL,
		Model:   serverConfig.CompletionModel,
	})
	if completionErr != nil {
		logger.Fatal(loggerContextCompletionClient, zap.Error(completionErr))
	}

	senderIdentity := dispatch.SenderIdentity{
		Name:  serverConfig.SenderName,
		Email: serverConfig.SenderEmail,
	}

	websiteExtractor := extractor.NewExtractor(logger)
	websiteAnalyzer := analyzer.New(websiteExtractor, completionClient, logger)
	reviewSynthesizer := reviews.NewSynthesizer(completionClient, logger, serverConfig.ReviewConcurrency)
	emailSender := dispatch.NewResendSender(serverConfig.EmailAPIKey, senderIdentity)
	requestDispatcher := dispatch.NewDispatcher(database, emailSender, senderIdentity, logger)
	contentGenerator := dispatch.NewContentGenerator(completionClient, logger)

	pipelineHandlers := httpapi.NewHandlers(websiteAnalyzer, reviewSynthesizer, requestDispatcher, contentGenerator, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsAllowOrigins,
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	registerRoutes(router, pipelineHandlers, httpapi.NewRateLimiter())

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

func ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.DatabaseDSN == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDSN)
	}
	if configuration.CompletionAPIKey == "" {
		missingParameters = append(missingParameters, flagNameCompletionAPIKey)
	}
	if configuration.EmailAPIKey == "" {
		missingParameters = append(missingParameters, flagNameEmailAPIKey)
	}
	if configuration.SenderName == "" {
		missingParameters = append(missingParameters, flagNameSenderName)
	}
	if configuration.SenderEmail == "" {
		missingParameters = append(missingParameters, flagNameSenderEmail)
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
