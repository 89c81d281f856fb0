package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
)

const (
	fetchTimeout     = 10 * time.Second
	maxRedirectCount = 5
	maxDocumentBytes = 2 * 1024 * 1024

	headerNameUserAgent       = "User-Agent"
	headerNameAccept          = "Accept"
	headerNameAcceptLanguage  = "Accept-Language"
	headerNameConnection      = "Connection"
	headerNameUpgradeInsecure = "Upgrade-Insecure-Requests"

	// Desktop browser headers improve compatibility with marketing sites
	// that reject unknown clients.
	headerValueUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	headerValueAccept          = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	headerValueAcceptLanguage  = "en-US,en;q=0.5"
	headerValueConnection      = "keep-alive"
	headerValueUpgradeInsecure = "1"

	logEventFetchFailed = "website_fetch_failed"
	logFieldURL         = "url"
)

// ErrorKind classifies a website fetch failure.
type ErrorKind string

const (
	ErrorKindForbidden   ErrorKind = "forbidden"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindUnknown     ErrorKind = "unknown"
)

var userFacingMessagesByKind = map[ErrorKind]string{
	ErrorKindForbidden:   "Website access restricted. Please try a different URL.",
	ErrorKindRateLimited: "Too many requests. Please try again later.",
	ErrorKindNotFound:    "Website not found. Please check the URL and try again.",
	ErrorKindTimeout:     "Website took too long to respond. Please try again later.",
	ErrorKindUnknown:     "Failed to analyze website. Please try again later.",
}

var errTooManyRedirects = errors.New("extractor: stopped after too many redirects")

// FetchError reports a website fetch failure with a user-facing message per kind.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	cause      error
}

func (fetchError *FetchError) Error() string {
	return userFacingMessagesByKind[fetchError.Kind]
}

func (fetchError *FetchError) Unwrap() error {
	return fetchError.cause
}

// Extractor fetches a marketing page once and derives heuristic business
// signals from its static markup. No scripts are executed and no retries are
// attempted.
type Extractor struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewExtractor creates an Extractor with a bounded-timeout, bounded-redirect
// HTTP client.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{
		logger: logger,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(request *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirectCount {
					return errTooManyRedirects
				}
				return nil
			},
		},
	}
}

// WithHTTPClient overrides the HTTP client dependency.
func (websiteExtractor *Extractor) WithHTTPClient(httpClient *http.Client) *Extractor {
	websiteExtractor.httpClient = httpClient
	return websiteExtractor
}

// Extract fetches the given absolute URL and parses the document into an
// ExtractedContent snapshot. Partial or empty fields are valid output.
func (websiteExtractor *Extractor) Extract(ctx context.Context, pageURL string) (model.ExtractedContent, error) {
	documentBody, fetchErr := websiteExtractor.fetch(ctx, pageURL)
	if fetchErr != nil {
		if websiteExtractor.logger != nil {
			websiteExtractor.logger.Warn(logEventFetchFailed, zap.String(logFieldURL, pageURL), zap.Error(fetchErr))
		}
		return model.ExtractedContent{}, fetchErr
	}

	return parseDocument(documentBody), nil
}

func (websiteExtractor *Extractor) fetch(ctx context.Context, pageURL string) (string, error) {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if requestErr != nil {
		return "", &FetchError{Kind: ErrorKindUnknown, cause: requestErr}
	}

	request.Header.Set(headerNameUserAgent, headerValueUserAgent)
	request.Header.Set(headerNameAccept, headerValueAccept)
	request.Header.Set(headerNameAcceptLanguage, headerValueAcceptLanguage)
	request.Header.Set(headerNameConnection, headerValueConnection)
	request.Header.Set(headerNameUpgradeInsecure, headerValueUpgradeInsecure)

	response, transportErr := websiteExtractor.httpClient.Do(request)
	if transportErr != nil {
		return "", classifyTransportError(transportErr)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", classifyStatusError(response.StatusCode)
	}

	documentBytes, readErr := io.ReadAll(io.LimitReader(response.Body, maxDocumentBytes))
	if readErr != nil {
		return "", classifyTransportError(readErr)
	}

	return string(documentBytes), nil
}

func classifyStatusError(statusCode int) *FetchError {
	kind := ErrorKindUnknown
	switch statusCode {
	case http.StatusForbidden:
		kind = ErrorKindForbidden
	case http.StatusTooManyRequests:
		kind = ErrorKindRateLimited
	case http.StatusNotFound:
		kind = ErrorKindNotFound
	}
	return &FetchError{Kind: kind, StatusCode: statusCode, cause: fmt.Errorf("extractor: unexpected status %d", statusCode)}
}

func classifyTransportError(transportErr error) *FetchError {
	var dnsError *net.DNSError
	if errors.As(transportErr, &dnsError) {
		return &FetchError{Kind: ErrorKindNotFound, cause: transportErr}
	}

	var netError net.Error
	if errors.As(transportErr, &netError) && netError.Timeout() {
		return &FetchError{Kind: ErrorKindTimeout, cause: transportErr}
	}

	if errors.Is(transportErr, context.DeadlineExceeded) {
		return &FetchError{Kind: ErrorKindTimeout, cause: transportErr}
	}

	return &FetchError{Kind: ErrorKindUnknown, cause: transportErr}
}
