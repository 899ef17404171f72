package usecase

import (
	"context"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/google/uuid"
)

type (
	TokenUseCase interface {
		IssueToken(displayName string, userID uuid.UUID) (string, error)
		VerifyToken(authorizationHeader string) (entity.Identity, error)
	}

	AccountUseCase interface {
		CreateAccount(ctx context.Context, in dto.CreateAccountInput) (dto.Session, error)
		Login(ctx context.Context, in dto.LoginInput) (dto.Session, error)
		Lookup(ctx context.Context, in dto.LookupInput) (dto.LookupResult, error)
	}

	UploadUseCase interface {
		RequestUpload(ctx context.Context, identity entity.Identity, filenames []string) ([]dto.UploadSlot, error)
	}

	RetrievalUseCase interface {
		ListImages(ctx context.Context, identity entity.Identity) ([]dto.ImageView, error)
		Resign(ctx context.Context, identity entity.Identity, imageID uuid.UUID) (dto.ImageView, error)
	}

	DerivationUseCase interface {
		Handle(ctx context.Context, event entity.StorageEvent) (entity.DerivationState, error)
	}

	DeadLetterUseCase interface {
		Record(ctx context.Context, event entity.StorageEvent, reason string, permanent bool) error
		ClaimPending(ctx context.Context, limit, maxRetries int) ([]*entity.DeadLetter, error)
		MarkAsProcessedBatch(ctx context.Context, letters []*entity.DeadLetter) error
		IncrementRetryCountBatch(ctx context.Context, letters []*entity.DeadLetter) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		Cleanup(ctx context.Context) error
	}
)
