package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultModelName      = "gpt-4o"
	defaultRequestTimeout = 60 * time.Second

	errorMessageMissingAPIKey   = "completion: missing API key"
	errorMessageEmptyCompletion = "completion: reply contained no choices"
	errorMessageCreateClient    = "completion: create client"
	errorMessageGenerateContent = "completion: generate content"
)

var (
	// ErrMissingAPIKey indicates the completion-service API key was omitted.
	ErrMissingAPIKey = errors.New(errorMessageMissingAPIKey)
	// ErrEmptyCompletion indicates the completion service returned no choices.
	ErrEmptyCompletion = errors.New(errorMessageEmptyCompletion)
)

// Config captures completion-service connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
}

// Request describes a single two-turn completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	JSONOnly     bool
}

// Completer issues one completion request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, request Request) (string, error)
}

// Client talks to an OpenAI-compatible completion service.
type Client struct {
	languageModel  llms.Model
	requestTimeout time.Duration
}

// NewClient creates a completion client for the configured service.
func NewClient(configuration Config) (*Client, error) {
	if configuration.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	modelName := configuration.Model
	if modelName == "" {
		modelName = defaultModelName
	}

	clientOptions := []openai.Option{
		openai.WithToken(configuration.APIKey),
		openai.WithModel(modelName),
	}
	if configuration.BaseURL != "" {
		clientOptions = append(clientOptions, openai.WithBaseURL(configuration.BaseURL))
	}

	languageModel, createErr := openai.New(clientOptions...)
	if createErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageCreateClient, createErr)
	}

	requestTimeout := configuration.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &Client{languageModel: languageModel, requestTimeout: requestTimeout}, nil
}

// Complete sends the system and user turns and returns the first choice's text.
func (client *Client) Complete(ctx context.Context, request Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, client.requestTimeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, request.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, request.UserPrompt),
	}

	callOptions := []llms.CallOption{llms.WithTemperature(request.Temperature)}
	if request.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(request.MaxTokens))
	}
	if request.JSONOnly {
		callOptions = append(callOptions, llms.WithJSONMode())
	}

	response, generateErr := client.languageModel.GenerateContent(callCtx, messages, callOptions...)
	if generateErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageGenerateContent, generateErr)
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return response.Choices[0].Content, nil
}
