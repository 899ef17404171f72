package entity

// StorageEvent is one object-created record from a bucket notification.
type StorageEvent struct {
	Bucket      string
	Key         string // URL-decoded
	Size        int64
	ContentType string

	// ImageID comes from the x-amz-meta-image-id header signed into the upload URL.
	// Empty when the store did not forward user metadata.
	ImageID string

	RedriveAttempt int
}
