package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

const (
	reviewContentMaxLength = 250
	reviewTitleMaxLength   = 50

	errorMessageInvalidReviewRating = "model: review rating must be an integer between 1 and 5"
	errorMessageEmptyReviewContent  = "model: review content is empty"
	errorMessageMissingReviewAuthor = "model: review author name is empty"
	errorMessageInvalidReviewDate   = "model: review date is not set"
)

var (
	// ErrInvalidReviewRating indicates a rating outside the 1..5 range.
	ErrInvalidReviewRating = errors.New(errorMessageInvalidReviewRating)
	// ErrEmptyReviewContent indicates a review without body text.
	ErrEmptyReviewContent = errors.New(errorMessageEmptyReviewContent)
	// ErrMissingReviewAuthor indicates a review without an author name.
	ErrMissingReviewAuthor = errors.New(errorMessageMissingReviewAuthor)
	// ErrInvalidReviewDate indicates a review without a timestamp.
	ErrInvalidReviewDate = errors.New(errorMessageInvalidReviewDate)
)

// Persona is a synthetic reviewer identity fabricated per generated review.
// It is embedded denormalized into the review and never stored standalone.
type Persona struct {
	Name       string
	Age        int
	Occupation string
	Location   string
}

// GeneratedReview is one synthetic customer review.
type GeneratedReview struct {
	Content    string    `json:"content"`
	Title      string    `json:"title"`
	AuthorName string    `json:"authorName"`
	Rating     int       `json:"rating"`
	Location   string    `json:"location"`
	Date       time.Time `json:"date"`
}

// GeneratedReviewInput carries the raw fields of a candidate review.
type GeneratedReviewInput struct {
	Content    string
	Title      string
	AuthorName string
	Rating     int
	Location   string
	Date       time.Time
}

// NewGeneratedReview validates a candidate review and clamps its content and
// title to their wire limits.
func NewGeneratedReview(input GeneratedReviewInput) (GeneratedReview, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return GeneratedReview{}, ErrInvalidReviewRating
	}
	if input.Content == "" {
		return GeneratedReview{}, ErrEmptyReviewContent
	}
	if input.AuthorName == "" {
		return GeneratedReview{}, ErrMissingReviewAuthor
	}
	if input.Date.IsZero() {
		return GeneratedReview{}, ErrInvalidReviewDate
	}

	return GeneratedReview{
		Content:    truncate(input.Content, reviewContentMaxLength),
		Title:      truncate(input.Title, reviewTitleMaxLength),
		AuthorName: input.AuthorName,
		Rating:     input.Rating,
		Location:   input.Location,
		Date:       input.Date,
	}, nil
}

// truncate cuts at the byte budget, backed up to a rune boundary so the
// result is always valid UTF-8.
func truncate(value string, maxLength int) string {
	if len(value) <= maxLength {
		return value
	}
	cutIndex := maxLength
	for cutIndex > 0 && !utf8.RuneStart(value[cutIndex]) {
		cutIndex--
	}
	return value[:cutIndex]
}
