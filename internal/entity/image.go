package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ThumbnailPrefix is the key namespace of derived thumbnails.
const ThumbnailPrefix = "thumbnails/"

// ImageRecord tracks one uploaded image through its lifecycle.
// DerivedMetadata stays nil until the thumbnail has been derived.
type ImageRecord struct {
	ImageID uuid.UUID `json:"image_id"`
	UserID  uuid.UUID `json:"user_id"`

	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`

	StorageKey   string `json:"storage_key"`
	ThumbnailKey string `json:"thumbnail_key"`

	DerivedMetadata *DerivedMetadata `json:"derived_metadata"`

	CreatedAt time.Time  `json:"created_at"`
	DerivedAt *time.Time `json:"derived_at,omitempty"`
}

// NewImageRecord builds a record for a file that has not been uploaded yet.
func NewImageRecord(userID uuid.UUID, filename, contentType string, now time.Time) *ImageRecord {
	id := uuid.New()
	key := StorageKey(id, filename)

	return &ImageRecord{
		ImageID:      id,
		UserID:       userID,
		Filename:     filename,
		ContentType:  contentType,
		StorageKey:   key,
		ThumbnailKey: ThumbnailKey(key),
		CreatedAt:    now,
	}
}

func (r *ImageRecord) Derived() bool {
	return r.DerivedMetadata != nil
}

func StorageKey(imageID uuid.UUID, filename string) string {
	return imageID.String() + "-" + filename
}

func ThumbnailKey(storageKey string) string {
	return ThumbnailPrefix + storageKey
}

func IsThumbnailKey(key string) bool {
	return strings.HasPrefix(key, ThumbnailPrefix)
}

// DerivedMetadata is filled in by the derivation worker.
type DerivedMetadata struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SizeBytes   int64  `json:"size_bytes"`
	ColorModel  string `json:"color_model"`
	HasAlpha    bool   `json:"has_alpha"`

	ThumbnailWidth       int    `json:"thumbnail_width"`
	ThumbnailHeight      int    `json:"thumbnail_height"`
	ThumbnailContentType string `json:"thumbnail_content_type"`
}
