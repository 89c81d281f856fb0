package model

// ExtractedContent is the transient snapshot of heuristic signals pulled from
// a marketing page. Empty or partial fields are valid; extraction never fails
// on pages it cannot understand.
type ExtractedContent struct {
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Features            []string          `json:"features"`
	Pricing             string            `json:"pricing"`
	MainContent         string            `json:"mainContent"`
	ReviewPlatformLinks map[string]string `json:"reviewPlatformLinks"`
}

// PlatformPresence reports whether a business has a detectable profile on one
// review platform. The Detected flag is carried verbatim from the analysis
// reply and is not recomputed after profile URLs are merged.
type PlatformPresence struct {
	Detected   bool    `json:"detected"`
	ProfileURL *string `json:"profileUrl"`
}

// AnalysisResult is the structured description of a product inferred from an
// extracted page snapshot. ReviewPlatforms always holds exactly the five
// fixed platform keys.
type AnalysisResult struct {
	ProductName         string                      `json:"productName"`
	Description         string                      `json:"description"`
	Features            []string                    `json:"features"`
	Pricing             []string                    `json:"pricing"`
	TargetAudience      string                      `json:"targetAudience"`
	UniqueSellingPoints []string                    `json:"uniqueSellingPoints"`
	Industry            string                      `json:"industry"`
	ReviewPlatforms     map[string]PlatformPresence `json:"reviewPlatforms"`
}
