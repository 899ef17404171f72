package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/andreyxaxa/memories-server/internal/repo"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultMaxFiles     = 20
	_defaultConcurrency  = 8
	_defaultPutURLExpiry = 15 * time.Minute

	imageIDMetadata = "image-id"
)

type UploadUseCase struct {
	records repo.ImageRecordRepo
	store   repo.ObjectStore
	metrics *metrics.Metrics
	logger  logger.Interface

	maxFiles     int
	concurrency  int
	putURLExpiry time.Duration
	now          func() time.Time
}

func New(records repo.ImageRecordRepo, store repo.ObjectStore, l logger.Interface, opts ...Option) *UploadUseCase {
	uc := &UploadUseCase{
		records:      records,
		store:        store,
		logger:       l,
		maxFiles:     _defaultMaxFiles,
		concurrency:  _defaultConcurrency,
		putURLExpiry: _defaultPutURLExpiry,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// RequestUpload returns one slot per filename, in input order. A failing
// file is reported in its slot and never affects the others.
func (uc *UploadUseCase) RequestUpload(ctx context.Context, identity entity.Identity, filenames []string) ([]dto.UploadSlot, error) {
	if len(filenames) == 0 {
		return nil, errs.ErrNoFiles
	}
	if len(filenames) > uc.maxFiles {
		return nil, fmt.Errorf("%w: %d > %d", errs.ErrTooManyFiles, len(filenames), uc.maxFiles)
	}

	slots := make([]dto.UploadSlot, len(filenames))

	g := new(errgroup.Group)
	g.SetLimit(uc.concurrency)

	for i, name := range filenames {
		g.Go(func() error {
			slots[i] = uc.requestOne(ctx, identity, name)
			uc.metrics.RecordUploadSlot(slots[i].Err)

			return nil
		})
	}

	// failures are kept per slot, the branches never return an error
	_ = g.Wait()

	return slots, nil
}

func (uc *UploadUseCase) requestOne(ctx context.Context, identity entity.Identity, name string) dto.UploadSlot {
	filename, contentType, err := NormalizeFilename(name)
	if err != nil {
		return dto.UploadSlot{Filename: name, Err: err}
	}

	record := entity.NewImageRecord(identity.UserID, filename, contentType, uc.now())

	// the record must exist before anyone can PUT the object
	err = uc.records.Create(ctx, record)
	if err != nil {
		uc.logger.Error(err, "UploadUseCase - requestOne - uc.records.Create - key=%s", record.StorageKey)

		return dto.UploadSlot{Filename: name, Err: fmt.Errorf("UploadUseCase - requestOne - uc.records.Create: %w", err)}
	}

	url, err := uc.store.PresignPut(ctx, record.StorageKey, contentType,
		map[string]string{imageIDMetadata: record.ImageID.String()}, uc.putURLExpiry)
	if err != nil {
		uc.logger.Error(err, "UploadUseCase - requestOne - uc.store.PresignPut - key=%s", record.StorageKey)
		uc.metrics.RecordPresignFailure("PUT")

		return dto.UploadSlot{Filename: name, Err: fmt.Errorf("UploadUseCase - requestOne - uc.store.PresignPut: %w", err)}
	}

	return dto.UploadSlot{
		Filename:      name,
		ImageID:       record.ImageID,
		UploadURL:     url.URL,
		UploadHeaders: url.Headers,
		ExpiresAt:     url.ExpiresAt,
	}
}
