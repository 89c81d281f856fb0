package extractor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/platform"
)

const (
	pricingTextMaxLength = 1000
	mainContentMaxLength = 3000
	featureMinLength     = 10
	featureMaxLength     = 200
	maxFeatureCount      = 10

	tagNameScript   = "script"
	tagNameStyle    = "style"
	tagNameNoscript = "noscript"
	tagNameTitle    = "title"
	tagNameMeta     = "meta"
	tagNameAnchor   = "a"
	tagNameListItem = "li"
	tagNameMain     = "main"
	tagNameArticle  = "article"
	tagNameSection  = "section"

	attributeNameName    = "name"
	attributeNameContent = "content"
	attributeNameHref    = "href"
	attributeNameClass   = "class"
	attributeNameID      = "id"

	metaNameDescription    = "description"
	contentIdentifier      = "content"
	classFragmentFeature   = "feature"
	classFragmentBenefit   = "benefit"
	currencySymbolDollar   = "$"
	currencySymbolEuro     = "€"
	pricingKeywordFragment = "price"
)

type documentCollector struct {
	title            string
	titleCaptured    bool
	description      string
	pricingFragments []string
	featureFragments []string
	mainFragments    []string
	anchorReferences []string
	visibleText      strings.Builder
}

func parseDocument(documentText string) model.ExtractedContent {
	extracted := model.ExtractedContent{
		Features:            []string{},
		ReviewPlatformLinks: map[string]string{},
	}

	documentRoot, parseErr := html.Parse(strings.NewReader(documentText))
	if parseErr != nil {
		return extracted
	}

	collector := &documentCollector{}
	collector.walk(documentRoot)

	extracted.Title = collector.title
	extracted.Description = collector.description
	extracted.Features = selectFeatures(collector.featureFragments)
	extracted.Pricing = truncateText(strings.Join(collector.pricingFragments, " "), pricingTextMaxLength)
	extracted.MainContent = truncateText(strings.Join(collector.mainFragments, "\n"), mainContentMaxLength)
	extracted.ReviewPlatformLinks = detectPlatformLinks(collector.anchorReferences, collector.visibleText.String())

	return extracted
}

func (collector *documentCollector) walk(node *html.Node) {
	if node.Type == html.ElementNode {
		switch node.Data {
		case tagNameScript, tagNameStyle, tagNameNoscript:
			return
		case tagNameTitle:
			if !collector.titleCaptured {
				collector.title = collapseWhitespace(elementText(node))
				collector.titleCaptured = true
			}
			return
		case tagNameMeta:
			if attributeValue(node, attributeNameName) == metaNameDescription {
				collector.description = strings.TrimSpace(attributeValue(node, attributeNameContent))
			}
		case tagNameAnchor:
			if anchorReference := strings.TrimSpace(attributeValue(node, attributeNameHref)); anchorReference != "" {
				collector.anchorReferences = append(collector.anchorReferences, anchorReference)
			}
		}

		if isFeatureElement(node) {
			collector.featureFragments = append(collector.featureFragments, collapseWhitespace(elementText(node)))
		}
		if isMainContentElement(node) {
			if fragment := strings.TrimSpace(elementText(node)); fragment != "" {
				collector.mainFragments = append(collector.mainFragments, fragment)
			}
		}
	}

	if node.Type == html.TextNode {
		if fragment := collapseWhitespace(node.Data); fragment != "" {
			collector.visibleText.WriteString(fragment)
			collector.visibleText.WriteString(" ")
			if containsPricingSignal(fragment) {
				collector.pricingFragments = append(collector.pricingFragments, fragment)
			}
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collector.walk(child)
	}
}

func isFeatureElement(node *html.Node) bool {
	if node.Data == tagNameListItem {
		return true
	}
	classValue := strings.ToLower(attributeValue(node, attributeNameClass))
	return strings.Contains(classValue, classFragmentFeature) || strings.Contains(classValue, classFragmentBenefit)
}

func isMainContentElement(node *html.Node) bool {
	switch node.Data {
	case tagNameMain, tagNameArticle, tagNameSection:
		return true
	}
	if attributeValue(node, attributeNameID) == contentIdentifier {
		return true
	}
	for _, classToken := range strings.Fields(attributeValue(node, attributeNameClass)) {
		if classToken == contentIdentifier {
			return true
		}
	}
	return false
}

func containsPricingSignal(text string) bool {
	if strings.Contains(text, currencySymbolDollar) || strings.Contains(text, currencySymbolEuro) {
		return true
	}
	return strings.Contains(strings.ToLower(text), pricingKeywordFragment)
}

func selectFeatures(candidates []string) []string {
	features := []string{}
	for _, candidate := range candidates {
		if len(candidate) < featureMinLength || len(candidate) > featureMaxLength {
			continue
		}
		features = append(features, candidate)
		if len(features) == maxFeatureCount {
			break
		}
	}
	return features
}

// detectPlatformLinks runs the two-pass platform detection: anchor hrefs in
// document order first, then the full visible text for platforms still
// unmatched. Anchor matches always win, and the first match per platform is
// kept. Matched links are canonicalized through the platform profile format.
func detectPlatformLinks(anchorReferences []string, visibleText string) map[string]string {
	detectedLinks := make(map[string]string)

	for _, anchorReference := range anchorReferences {
		for _, definition := range platform.All() {
			if _, alreadyDetected := detectedLinks[definition.Key]; alreadyDetected {
				continue
			}
			if canonicalURL, matched := definition.CanonicalProfileURL(anchorReference); matched {
				detectedLinks[definition.Key] = canonicalURL
			}
		}
	}

	for _, definition := range platform.All() {
		if _, alreadyDetected := detectedLinks[definition.Key]; alreadyDetected {
			continue
		}
		if canonicalURL, matched := definition.CanonicalProfileURL(visibleText); matched {
			detectedLinks[definition.Key] = canonicalURL
		}
	}

	return detectedLinks
}

func elementText(node *html.Node) string {
	var textBuilder strings.Builder
	var gather func(*html.Node)
	gather = func(current *html.Node) {
		if current.Type == html.ElementNode {
			switch current.Data {
			case tagNameScript, tagNameStyle, tagNameNoscript:
				return
			}
		}
		if current.Type == html.TextNode {
			textBuilder.WriteString(current.Data)
			textBuilder.WriteString(" ")
		}
		for child := current.FirstChild; child != nil; child = child.NextSibling {
			gather(child)
		}
	}
	gather(node)
	return textBuilder.String()
}

func attributeValue(node *html.Node, attributeName string) string {
	for _, attribute := range node.Attr {
		if attribute.Key == attributeName {
			return attribute.Val
		}
	}
	return ""
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncateText cuts at the byte budget, backed up to a rune boundary so the
// result is always valid UTF-8.
func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	cutIndex := maxLength
	for cutIndex > 0 && !utf8.RuneStart(text[cutIndex]) {
		cutIndex--
	}
	return text[:cutIndex]
}
