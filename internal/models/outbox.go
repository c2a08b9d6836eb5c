package models

import "time"

const (
	OutboxStatusPending   = "pending"
	OutboxStatusRetry     = "retry"
	OutboxStatusPublished = "published"
	OutboxStatusFailed    = "failed"
)

// OutboxEvent is a queued domain event awaiting delivery to subscribers.
type OutboxEvent struct {
	ID          int64      `json:"id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
