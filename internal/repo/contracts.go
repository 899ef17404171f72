package repo

import (
	"context"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/google/uuid"
)

type (
	ObjectStore interface {
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		PresignPut(ctx context.Context, key, contentType string, metadata map[string]string, expiry time.Duration) (dto.PresignedURL, error)
		PresignGet(ctx context.Context, key string, expiry time.Duration) (dto.PresignedURL, error)
	}

	ImageRecordRepo interface {
		Create(ctx context.Context, record *entity.ImageRecord) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.ImageRecord, error)
		GetByStorageKey(ctx context.Context, key string) (*entity.ImageRecord, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.ImageRecord, error)
		// SetDerivedMetadata reports false when the record was already derived.
		SetDerivedMetadata(ctx context.Context, id uuid.UUID, meta *entity.DerivedMetadata, derivedAt time.Time) (bool, error)
	}

	UserRepo interface {
		Create(ctx context.Context, user *entity.User) error
		GetByUsername(ctx context.Context, username string) (*entity.User, error)
		ExistsByUsername(ctx context.Context, username string) (bool, error)
		ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error)
	}

	DeadLetterRepo interface {
		Create(ctx context.Context, dl *entity.DeadLetter) error
		GetPending(ctx context.Context, limit, maxRetries int) ([]*entity.DeadLetter, error)
		MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, ids uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error)
		DeleteProcessed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
