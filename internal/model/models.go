package model

import "time"

// Review request delivery states owned by this service. External workflows
// apply later states ("sent", "received") once delivery is confirmed.
const (
	ReviewRequestStatusPending = "pending"
	ReviewRequestStatusFailed  = "failed"
)

// SelectedPlatform identifies one review platform chosen by the caller
// together with the business profile URL to derive the deep link from.
type SelectedPlatform struct {
	ID         string  `json:"id"`
	ProfileURL *string `json:"profileUrl"`
}

// ReviewRequest is the durable tracking record persisted before an outbound
// review-request email is attempted.
type ReviewRequest struct {
	ID             string             `gorm:"primaryKey;size:36" json:"id"`
	Token          string             `gorm:"uniqueIndex;not null;size:32" json:"token"`
	ReviewContent  string             `gorm:"not null;size:4000" json:"review_content"`
	RecipientName  string             `gorm:"not null;size:200" json:"recipient_name"`
	RecipientEmail string             `gorm:"not null;size:320" json:"recipient_email"`
	SenderName     string             `gorm:"not null;size:200" json:"sender_name"`
	SenderEmail    string             `gorm:"not null;size:320" json:"sender_email"`
	Platforms      []SelectedPlatform `gorm:"serializer:json" json:"platforms"`
	Status         string             `gorm:"not null;size:20" json:"status"`
	ProductName    string             `gorm:"size:200" json:"product_name"`
	Rating         int                `json:"rating"`
	Title          string             `gorm:"size:200" json:"title"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
}
