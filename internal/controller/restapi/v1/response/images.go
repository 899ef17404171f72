package response

import (
	"errors"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
)

// UploadSlot carries either the upload fields or Error.
type UploadSlot struct {
	Filename      string            `json:"filename"`
	ImageID       string            `json:"image_id,omitempty"`
	UploadURL     string            `json:"upload_url,omitempty"`
	UploadHeaders map[string]string `json:"upload_headers,omitempty"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
	Error         string            `json:"error,omitempty"`
}

type Upload struct {
	Uploads []UploadSlot `json:"uploads"`
}

type Image struct {
	ImageID         string                  `json:"image_id"`
	Filename        string                  `json:"filename"`
	DerivedMetadata *entity.DerivedMetadata `json:"derived_metadata"`

	OriginalURL           string    `json:"original_url"`
	OriginalURLExpiresAt  time.Time `json:"original_url_expires_at"`
	ThumbnailURL          string    `json:"thumbnail_url"`
	ThumbnailURLExpiresAt time.Time `json:"thumbnail_url_expires_at"`

	CreatedAt time.Time `json:"created_at"`
}

func NewUpload(slots []dto.UploadSlot) Upload {
	resp := Upload{Uploads: make([]UploadSlot, 0, len(slots))}

	for _, s := range slots {
		if s.Err != nil {
			resp.Uploads = append(resp.Uploads, UploadSlot{Filename: s.Filename, Error: slotError(s.Err)})
			continue
		}

		expiresAt := s.ExpiresAt
		resp.Uploads = append(resp.Uploads, UploadSlot{
			Filename:      s.Filename,
			ImageID:       s.ImageID.String(),
			UploadURL:     s.UploadURL,
			UploadHeaders: s.UploadHeaders,
			ExpiresAt:     &expiresAt,
		})
	}

	return resp
}

func NewImage(v dto.ImageView) Image {
	return Image{
		ImageID:               v.ImageID.String(),
		Filename:              v.Filename,
		DerivedMetadata:       v.DerivedMetadata,
		OriginalURL:           v.OriginalURL,
		OriginalURLExpiresAt:  v.OriginalURLExpiresAt,
		ThumbnailURL:          v.ThumbnailURL,
		ThumbnailURLExpiresAt: v.ThumbnailURLExpiresAt,
		CreatedAt:             v.CreatedAt,
	}
}

func NewImages(views []dto.ImageView) []Image {
	out := make([]Image, 0, len(views))
	for _, v := range views {
		out = append(out, NewImage(v))
	}

	return out
}

// slotError hides internals of failed slots from the client.
func slotError(err error) string {
	switch {
	case errors.Is(err, errs.ErrEmptyFilename):
		return "Filename is required."
	case errors.Is(err, errs.ErrUnsupportedExtension):
		return "Unsupported file extension."
	default:
		return "Upload URL could not be issued."
	}
}
