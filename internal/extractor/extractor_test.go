package extractor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/extractor"
)

const marketingPageDocument = `<!DOCTYPE html>
<html>
<head>
<title>Acme Analytics - dashboards for small teams</title>
<meta name="description" content="Self-serve analytics dashboards for small teams.">
</head>
<body>
<main>
<h1>Acme Analytics</h1>
<p>Understand your customers without a data team.</p>
<ul>
<li>Real-time dashboards with custom metrics</li>
<li>Automated weekly email digests</li>
<li>tiny</li>
</ul>
<div class="feature-grid">Connect any SQL database in under five minutes</div>
<div class="benefits">No-code funnel and retention reports</div>
<p>Pricing starts at $29 per month for unlimited seats.</p>
</main>
<section id="content">Trusted by hundreds of product teams.</section>
<footer>
<a href="https://www.trustpilot.com/review/acme.io">Trustpilot</a>
<a href="https://www.g2.com/products/acme-analytics">G2</a>
<p>Find us on yelp.com/biz/acme-analytics-denver as well.</p>
</footer>
</body>
</html>`

func newExtractorTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestExtractCollectsHeuristicSignals(t *testing.T) {
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(marketingPageDocument))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)

	require.Equal(t, "Acme Analytics - dashboards for small teams", extracted.Title)
	require.Equal(t, "Self-serve analytics dashboards for small teams.", extracted.Description)

	require.Contains(t, extracted.Features, "Real-time dashboards with custom metrics")
	require.Contains(t, extracted.Features, "Automated weekly email digests")
	require.Contains(t, extracted.Features, "Connect any SQL database in under five minutes")
	require.NotContains(t, extracted.Features, "tiny")
	require.LessOrEqual(t, len(extracted.Features), 10)
	for _, feature := range extracted.Features {
		require.GreaterOrEqual(t, len(feature), 10)
		require.LessOrEqual(t, len(feature), 200)
	}

	require.Contains(t, extracted.Pricing, "$29")
	require.LessOrEqual(t, len(extracted.Pricing), 1000)

	require.Contains(t, extracted.MainContent, "Understand your customers")
	require.Contains(t, extracted.MainContent, "Trusted by hundreds of product teams.")
	require.LessOrEqual(t, len(extracted.MainContent), 3000)
}

func TestExtractDetectsPlatformLinksFromAnchorsAndText(t *testing.T) {
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(marketingPageDocument))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)

	require.Equal(t, "https://www.trustpilot.com/review/acme.io", extracted.ReviewPlatformLinks["trustpilot"])
	require.Equal(t, "https://www.g2.com/products/acme-analytics", extracted.ReviewPlatformLinks["g2"])
	require.Equal(t, "https://www.yelp.com/biz/acme-analytics-denver", extracted.ReviewPlatformLinks["yelp"])
	require.NotContains(t, extracted.ReviewPlatformLinks, "capterra")
	require.NotContains(t, extracted.ReviewPlatformLinks, "google")
}

func TestExtractCanonicalizesRelativeAnchor(t *testing.T) {
	document := `<html><body><a href="trustpilot.com/review/example">Reviews</a></body></html>`
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(document))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "https://www.trustpilot.com/review/example", extracted.ReviewPlatformLinks["trustpilot"])
}

func TestExtractAnchorMatchWinsOverBodyText(t *testing.T) {
	document := `<html><body>
<p>See trustpilot.com/review/text-mention for reviews.</p>
<a href="https://www.trustpilot.com/review/anchor-company">Reviews</a>
</body></html>`
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(document))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "https://www.trustpilot.com/review/anchor-company", extracted.ReviewPlatformLinks["trustpilot"])
}

func TestExtractFirstAnchorPerPlatformWins(t *testing.T) {
	document := `<html><body>
<a href="https://www.trustpilot.com/review/first-company">First</a>
<a href="https://www.trustpilot.com/review/second-company">Second</a>
</body></html>`
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(document))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "https://www.trustpilot.com/review/first-company", extracted.ReviewPlatformLinks["trustpilot"])
}

func TestExtractNeverFailsOnUnintelligiblePage(t *testing.T) {
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte("<<<>>> not really html"))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Empty(t, extracted.Title)
	require.Empty(t, extracted.Features)
	require.Empty(t, extracted.ReviewPlatformLinks)
}

func TestExtractClassifiesStatusErrors(t *testing.T) {
	testCases := []struct {
		statusCode      int
		expectedKind    extractor.ErrorKind
		expectedMessage string
	}{
		{http.StatusForbidden, extractor.ErrorKindForbidden, "Website access restricted. Please try a different URL."},
		{http.StatusTooManyRequests, extractor.ErrorKindRateLimited, "Too many requests. Please try again later."},
		{http.StatusNotFound, extractor.ErrorKindNotFound, "Website not found. Please check the URL and try again."},
		{http.StatusInternalServerError, extractor.ErrorKindUnknown, "Failed to analyze website. Please try again later."},
	}

	for _, testCase := range testCases {
		server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(testCase.statusCode)
		})

		_, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
		require.Error(t, err)

		var fetchError *extractor.FetchError
		require.ErrorAs(t, err, &fetchError)
		require.Equal(t, testCase.expectedKind, fetchError.Kind)
		require.Equal(t, testCase.statusCode, fetchError.StatusCode)
		require.Equal(t, testCase.expectedMessage, err.Error())
	}
}

func TestExtractClassifiesTimeout(t *testing.T) {
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = writer.Write([]byte("<html></html>"))
	})

	impatientClient := &http.Client{Timeout: 20 * time.Millisecond}
	websiteExtractor := extractor.NewExtractor(zap.NewNop()).WithHTTPClient(impatientClient)

	_, err := websiteExtractor.Extract(context.Background(), server.URL)
	require.Error(t, err)

	var fetchError *extractor.FetchError
	require.ErrorAs(t, err, &fetchError)
	require.Equal(t, extractor.ErrorKindTimeout, fetchError.Kind)
	require.Equal(t, "Website took too long to respond. Please try again later.", err.Error())
}

func TestExtractTruncatesOversizedSections(t *testing.T) {
	longParagraph := strings.Repeat("pricing text costs $10 and more words here ", 100)
	document := "<html><body><main><p>" + longParagraph + "</p></main></body></html>"
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(document))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, extracted.Pricing, 1000)
	require.Len(t, extracted.MainContent, 3000)
}

func TestExtractTruncationKeepsValidUTF8(t *testing.T) {
	multibyteText := "$x" + strings.Repeat("€", 1200)
	document := "<html><body><main><p>" + multibyteText + "</p></main></body></html>"
	server := newExtractorTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(document))
	})

	extracted, err := extractor.NewExtractor(zap.NewNop()).Extract(context.Background(), server.URL)
	require.NoError(t, err)

	require.True(t, utf8.ValidString(extracted.Pricing))
	require.LessOrEqual(t, len(extracted.Pricing), 1000)
	require.True(t, utf8.ValidString(extracted.MainContent))
	require.LessOrEqual(t, len(extracted.MainContent), 3000)
}
