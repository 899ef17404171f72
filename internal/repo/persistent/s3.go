package persistent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/pkg/s3client"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type ObjectStore struct {
	*s3client.S3Client
	bucket string
}

func NewObjectStore(s3c *s3client.S3Client, bucket string) *ObjectStore {
	return &ObjectStore{s3c, bucket}
}

func (r *ObjectStore) Bucket() string {
	return r.bucket
}

func (r *ObjectStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("ObjectStore - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ObjectStore) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ObjectStore - DownloadBytes - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("ObjectStore - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

// PresignPut signs a PUT of exactly key. The content type and every metadata
// entry become signed headers the uploader has to send unchanged.
func (r *ObjectStore) PresignPut(
	ctx context.Context,
	key string,
	contentType string,
	metadata map[string]string,
	expiry time.Duration,
) (dto.PresignedURL, error) {
	req, err := r.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return dto.PresignedURL{}, fmt.Errorf("ObjectStore - PresignPut - r.Presign.PresignPutObject: %w", err)
	}

	return toPresignedURL(req, expiry), nil
}

func (r *ObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (dto.PresignedURL, error) {
	req, err := r.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return dto.PresignedURL{}, fmt.Errorf("ObjectStore - PresignGet - r.Presign.PresignGetObject: %w", err)
	}

	return toPresignedURL(req, expiry), nil
}

func toPresignedURL(req *v4.PresignedHTTPRequest, expiry time.Duration) dto.PresignedURL {
	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		// the HTTP client sets Host itself
		if http.CanonicalHeaderKey(name) == "Host" || len(values) == 0 {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = values[0]
	}

	return dto.PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		ExpiresAt: time.Now().Add(expiry),
	}
}
