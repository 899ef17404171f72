package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/andreyxaxa/memories-server/internal/repo"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultConcurrency        = 8
	_defaultGetURLExpiry       = time.Hour
	_defaultThumbnailURLExpiry = time.Hour
)

type RetrievalUseCase struct {
	records repo.ImageRecordRepo
	store   repo.ObjectStore
	metrics *metrics.Metrics
	logger  logger.Interface

	concurrency        int
	getURLExpiry       time.Duration
	thumbnailURLExpiry time.Duration
}

func New(records repo.ImageRecordRepo, store repo.ObjectStore, l logger.Interface, opts ...Option) *RetrievalUseCase {
	uc := &RetrievalUseCase{
		records:            records,
		store:              store,
		logger:             l,
		concurrency:        _defaultConcurrency,
		getURLExpiry:       _defaultGetURLExpiry,
		thumbnailURLExpiry: _defaultThumbnailURLExpiry,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ListImages signs every owned record. A record whose URLs cannot be signed
// is logged and left out.
func (uc *RetrievalUseCase) ListImages(ctx context.Context, identity entity.Identity) ([]dto.ImageView, error) {
	records, err := uc.records.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("RetrievalUseCase - ListImages - uc.records.ListByUser: %w", err)
	}

	views := make([]dto.ImageView, len(records))
	signed := make([]bool, len(records))

	g := new(errgroup.Group)
	g.SetLimit(uc.concurrency)

	for i, record := range records {
		g.Go(func() error {
			view, err := uc.view(ctx, record)
			if err != nil {
				uc.logger.Error(err, "RetrievalUseCase - ListImages - uc.view - image_id=%s", record.ImageID)

				return nil
			}

			views[i] = view
			signed[i] = true

			return nil
		})
	}

	// a record that fails to sign is logged and skipped, the branches never return an error
	_ = g.Wait()

	out := make([]dto.ImageView, 0, len(records))
	for i := range views {
		if signed[i] {
			out = append(out, views[i])
		}
	}

	return out, nil
}

// Resign issues fresh URLs for one record. Records of other users are
// reported as not found.
func (uc *RetrievalUseCase) Resign(ctx context.Context, identity entity.Identity, imageID uuid.UUID) (dto.ImageView, error) {
	record, err := uc.records.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return dto.ImageView{}, errs.ErrRecordNotFound
		}
		return dto.ImageView{}, fmt.Errorf("RetrievalUseCase - Resign - uc.records.GetByID: %w", err)
	}

	if record.UserID != identity.UserID {
		return dto.ImageView{}, errs.ErrRecordNotFound
	}

	view, err := uc.view(ctx, record)
	if err != nil {
		return dto.ImageView{}, fmt.Errorf("RetrievalUseCase - Resign: %w", err)
	}

	return view, nil
}

func (uc *RetrievalUseCase) view(ctx context.Context, record *entity.ImageRecord) (dto.ImageView, error) {
	original, err := uc.store.PresignGet(ctx, record.StorageKey, uc.getURLExpiry)
	if err != nil {
		uc.metrics.RecordPresignFailure("GET")

		return dto.ImageView{}, fmt.Errorf("uc.store.PresignGet original: %w", err)
	}

	thumbnail, err := uc.store.PresignGet(ctx, record.ThumbnailKey, uc.thumbnailURLExpiry)
	if err != nil {
		uc.metrics.RecordPresignFailure("GET")

		return dto.ImageView{}, fmt.Errorf("uc.store.PresignGet thumbnail: %w", err)
	}

	return dto.ImageView{
		ImageID:               record.ImageID,
		Filename:              record.Filename,
		DerivedMetadata:       record.DerivedMetadata,
		OriginalURL:           original.URL,
		OriginalURLExpiresAt:  original.ExpiresAt,
		ThumbnailURL:          thumbnail.URL,
		ThumbnailURLExpiresAt: thumbnail.ExpiresAt,
		CreatedAt:             record.CreatedAt,
	}, nil
}
