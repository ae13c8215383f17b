package models

import "time"

type UsageType string

const (
	UsagePurchaseCompleted UsageType = "purchase_completed"
	UsageDownload          UsageType = "download"
)

// UsageEvent is published to Kafka and stored by the usage consumer.
type UsageEvent struct {
	EventID    string    `json:"event_id"`
	Type       UsageType `json:"type"`
	BuyerID    int32     `json:"buyer_id"`
	BookID     int32     `json:"book_id"`
	Amount     int64     `json:"amount"`
	SessionRef string    `json:"session_ref,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
