package dto

import (
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/google/uuid"
)

type ImageView struct {
	ImageID         uuid.UUID
	Filename        string
	DerivedMetadata *entity.DerivedMetadata

	OriginalURL           string
	OriginalURLExpiresAt  time.Time
	ThumbnailURL          string
	ThumbnailURLExpiresAt time.Time

	CreatedAt time.Time
}
