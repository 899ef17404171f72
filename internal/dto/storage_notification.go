package dto

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/andreyxaxa/memories-server/internal/entity"
)

const (
	createdEventPrefix = "ObjectCreated:"
	imageIDMetadataKey = "x-amz-meta-image-id"
)

// StorageNotification is the S3 event notification document
// (AWS S3, MinIO and Garage share this shape).
type StorageNotification struct {
	Records []StorageRecord `json:"Records"`
}

type StorageRecord struct {
	EventName string        `json:"eventName,omitempty"`
	S3        StorageEntity `json:"s3"`
}

type StorageEntity struct {
	Bucket StorageBucket `json:"bucket"`
	Object StorageObject `json:"object"`
}

type StorageBucket struct {
	Name string `json:"name"`
}

type StorageObject struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size,omitempty"`
	ContentType  string            `json:"contentType,omitempty"`
	UserMetadata map[string]string `json:"userMetadata,omitempty"`
}

// ParseStorageNotification returns the object-created records of a notification.
// Other event kinds are dropped.
func ParseStorageNotification(data []byte) ([]entity.StorageEvent, error) {
	var n StorageNotification

	err := json.Unmarshal(data, &n)
	if err != nil {
		return nil, fmt.Errorf("ParseStorageNotification - json.Unmarshal: %w", err)
	}

	events := make([]entity.StorageEvent, 0, len(n.Records))
	for _, rec := range n.Records {
		if rec.EventName != "" && !isCreatedEvent(rec.EventName) {
			continue
		}

		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("ParseStorageNotification - url.QueryUnescape(%q): %w", rec.S3.Object.Key, err)
		}
		if key == "" {
			return nil, fmt.Errorf("ParseStorageNotification: record without object key")
		}

		events = append(events, entity.StorageEvent{
			Bucket:      rec.S3.Bucket.Name,
			Key:         key,
			Size:        rec.S3.Object.Size,
			ContentType: rec.S3.Object.ContentType,
			ImageID:     imageIDFromMetadata(rec.S3.Object.UserMetadata),
		})
	}

	return events, nil
}

// NewStorageNotification encodes a single event as a notification document.
func NewStorageNotification(event entity.StorageEvent) ([]byte, error) {
	obj := StorageObject{
		Key:         url.QueryEscape(event.Key),
		Size:        event.Size,
		ContentType: event.ContentType,
	}
	if event.ImageID != "" {
		obj.UserMetadata = map[string]string{imageIDMetadataKey: event.ImageID}
	}

	b, err := json.Marshal(StorageNotification{
		Records: []StorageRecord{{
			EventName: "s3:" + createdEventPrefix + "Put",
			S3: StorageEntity{
				Bucket: StorageBucket{Name: event.Bucket},
				Object: obj,
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("NewStorageNotification - json.Marshal: %w", err)
	}

	return b, nil
}

func isCreatedEvent(name string) bool {
	return strings.HasPrefix(strings.TrimPrefix(name, "s3:"), createdEventPrefix)
}

// MinIO forwards metadata as "X-Amz-Meta-Image-Id", others lowercase it
// or strip the prefix.
func imageIDFromMetadata(md map[string]string) string {
	for k, v := range md {
		switch strings.ToLower(k) {
		case imageIDMetadataKey, "image-id":
			return v
		}
	}

	return ""
}
