package dto

import (
	"time"

	"github.com/google/uuid"
)

// UploadSlot is the outcome for one requested filename.
// Exactly one of Err or the upload fields is set.
type UploadSlot struct {
	Filename string

	ImageID       uuid.UUID
	UploadURL     string
	UploadHeaders map[string]string
	ExpiresAt     time.Time

	Err error
}
