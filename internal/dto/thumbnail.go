package dto

import "github.com/andreyxaxa/memories-server/internal/entity"

// Thumbnail is an encoded thumbnail plus what was learned about its source.
type Thumbnail struct {
	Data        []byte
	ContentType string
	Metadata    entity.DerivedMetadata
}
