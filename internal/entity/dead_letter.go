package entity

import (
	"time"

	"github.com/google/uuid"
)

// DeadLetter is a derivation event that exhausted its in-process retries.
type DeadLetter struct {
	ID uuid.UUID `json:"id"`

	ObjectKey string `json:"object_key"`
	Bucket    string `json:"bucket"`
	ImageID   string `json:"image_id"`

	Payload []byte `json:"payload"` // single-record storage notification
	Reason  string `json:"reason"`
	Status  Status `json:"status"` // pending, processing, processed, failed

	RedriveAttempt int `json:"redrive_attempt"`
	RetryCount     int `json:"retry_count"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
