package dto

import (
	"testing"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStorageNotification_MinIO(t *testing.T) {
	payload := []byte(`{
		"EventName": "s3:ObjectCreated:Put",
		"Key": "memories/0b7c-my+summer+photo.jpg",
		"Records": [{
			"eventVersion": "2.0",
			"eventSource": "minio:s3",
			"eventName": "s3:ObjectCreated:Put",
			"s3": {
				"bucket": {"name": "memories"},
				"object": {
					"key": "0b7c-my+summer%2Bphoto.jpg",
					"size": 2048,
					"contentType": "image/jpeg",
					"userMetadata": {"X-Amz-Meta-Image-Id": "0b7c", "content-type": "image/jpeg"}
				}
			}
		}]
	}`)

	events, err := ParseStorageNotification(payload)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "memories", events[0].Bucket)
	assert.Equal(t, "0b7c-my summer+photo.jpg", events[0].Key)
	assert.Equal(t, int64(2048), events[0].Size)
	assert.Equal(t, "image/jpeg", events[0].ContentType)
	assert.Equal(t, "0b7c", events[0].ImageID)
}

func TestParseStorageNotification_DropsOtherEvents(t *testing.T) {
	payload := []byte(`{"Records":[
		{"eventName":"ObjectRemoved:Delete","s3":{"bucket":{"name":"b"},"object":{"key":"a.jpg"}}},
		{"eventName":"ObjectCreated:CompleteMultipartUpload","s3":{"bucket":{"name":"b"},"object":{"key":"b.jpg"}}}
	]}`)

	events, err := ParseStorageNotification(payload)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b.jpg", events[0].Key)
	assert.Empty(t, events[0].ImageID)
}

func TestParseStorageNotification_Invalid(t *testing.T) {
	_, err := ParseStorageNotification([]byte(`not json`))
	require.Error(t, err)

	_, err = ParseStorageNotification([]byte(`{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":""}}}]}`))
	require.Error(t, err)
}

func TestNewStorageNotification_RoundTrip(t *testing.T) {
	in := entity.StorageEvent{
		Bucket:      "memories",
		Key:         "1f2e-beach day-2024.png",
		Size:        10,
		ContentType: "image/png",
		ImageID:     "1f2e",
	}

	b, err := NewStorageNotification(in)
	require.NoError(t, err)

	out, err := ParseStorageNotification(b)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}
