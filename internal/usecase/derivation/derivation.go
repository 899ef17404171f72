package derivation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/infrastructure"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/andreyxaxa/memories-server/internal/repo"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	_defaultThumbnailSize     = 172
	_defaultMaxAttempts       = 3
	_defaultInitialBackoff    = 200 * time.Millisecond
	_defaultMaxBackoff        = 5 * time.Second
	_defaultCPUTimeout        = 8 * time.Second
	_defaultDeadLetterTimeout = 5 * time.Second
)

type DerivationUseCase struct {
	records     repo.ImageRecordRepo
	store       repo.ObjectStore
	processor   infrastructure.ImageProcessor
	deadLetters usecase.DeadLetterUseCase
	metrics     *metrics.Metrics
	logger      logger.Interface

	thumbnailSize     int
	maxAttempts       int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	cpuTimeout        time.Duration
	deadLetterTimeout time.Duration
	now               func() time.Time
}

func New(
	records repo.ImageRecordRepo,
	store repo.ObjectStore,
	processor infrastructure.ImageProcessor,
	deadLetters usecase.DeadLetterUseCase,
	l logger.Interface,
	opts ...Option,
) *DerivationUseCase {
	uc := &DerivationUseCase{
		records:           records,
		store:             store,
		processor:         processor,
		deadLetters:       deadLetters,
		logger:            l,
		thumbnailSize:     _defaultThumbnailSize,
		maxAttempts:       _defaultMaxAttempts,
		initialBackoff:    _defaultInitialBackoff,
		maxBackoff:        _defaultMaxBackoff,
		cpuTimeout:        _defaultCPUTimeout,
		deadLetterTimeout: _defaultDeadLetterTimeout,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Handle drives one storage event to Skipped, Done or DeadLettered.
// An error means the event reached none of them and must be redelivered.
func (uc *DerivationUseCase) Handle(ctx context.Context, event entity.StorageEvent) (entity.DerivationState, error) {
	start := uc.now()

	if entity.IsThumbnailKey(event.Key) {
		uc.metrics.RecordDerivation(entity.Skipped, time.Since(start))

		return entity.Skipped, nil
	}

	var lastErr error

	operation := func() error {
		err := uc.derive(ctx, event)
		if err != nil {
			lastErr = err
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
		}

		return err
	}

	notify := func(err error, next time.Duration) {
		uc.metrics.RecordDerivationRetry()
		uc.logger.Warn("derivation of %s failed, retrying in %s: %v", event.Key, next, err)
	}

	err := backoff.RetryNotify(operation, uc.backoff(ctx), notify)
	if err == nil {
		uc.metrics.RecordDerivation(entity.Done, time.Since(start))

		return entity.Done, nil
	}

	// shutting down: leave the event to the next consumer
	if errors.Is(ctx.Err(), context.Canceled) {
		return entity.InProgress, fmt.Errorf("DerivationUseCase - Handle - key=%s: %w", event.Key, ctx.Err())
	}

	if lastErr == nil {
		lastErr = err
	}

	uc.logger.Error(lastErr, "DerivationUseCase - Handle - key=%s", event.Key)

	// ctx may already be past its deadline here
	dlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.deadLetterTimeout)
	defer cancel()

	err = uc.deadLetters.Record(dlCtx, event, lastErr.Error(), isPermanent(lastErr))
	if err != nil {
		return entity.InProgress, fmt.Errorf("DerivationUseCase - Handle - uc.deadLetters.Record: %w", err)
	}

	uc.metrics.RecordDerivation(entity.DeadLettered, time.Since(start))

	return entity.DeadLettered, nil
}

func (uc *DerivationUseCase) derive(ctx context.Context, event entity.StorageEvent) error {
	record, err := uc.resolve(ctx, event)
	if err != nil {
		return fmt.Errorf("uc.resolve: %w", err)
	}

	// a redelivery after a completed run
	if record.Derived() {
		return nil
	}

	data, err := uc.store.DownloadBytes(ctx, event.Key)
	if err != nil {
		return fmt.Errorf("uc.store.DownloadBytes: %w", err)
	}

	cpuCtx, cpuCancel := context.WithTimeout(ctx, uc.cpuTimeout)
	thumb, err := uc.processor.Thumbnail(cpuCtx, data, uc.thumbnailSize)
	cpuCancel()
	if err != nil {
		return fmt.Errorf("uc.processor.Thumbnail: %w", err)
	}

	err = uc.store.UploadBytes(ctx, record.ThumbnailKey, thumb.Data, thumb.ContentType)
	if err != nil {
		return fmt.Errorf("uc.store.UploadBytes: %w", err)
	}

	updated, err := uc.records.SetDerivedMetadata(ctx, record.ImageID, &thumb.Metadata, uc.now())
	if err != nil {
		return fmt.Errorf("uc.records.SetDerivedMetadata: %w", err)
	}
	if !updated {
		uc.logger.Debug("DerivationUseCase - derive - image_id=%s already derived", record.ImageID)
	}

	return nil
}

// resolve finds the record owning the object without parsing its key.
func (uc *DerivationUseCase) resolve(ctx context.Context, event entity.StorageEvent) (*entity.ImageRecord, error) {
	if event.ImageID != "" {
		id, err := uuid.Parse(event.ImageID)
		if err == nil {
			record, err := uc.records.GetByID(ctx, id)
			switch {
			case err == nil && record.StorageKey == event.Key:
				return record, nil
			case err == nil:
				uc.logger.Warn("image-id %s names key %q, event key is %q", id, record.StorageKey, event.Key)
			case !errors.Is(err, errs.ErrRecordNotFound):
				return nil, fmt.Errorf("uc.records.GetByID: %w", err)
			}
		}
	}

	record, err := uc.records.GetByStorageKey(ctx, event.Key)
	if err != nil {
		return nil, fmt.Errorf("uc.records.GetByStorageKey: %w", err)
	}

	return record, nil
}

func (uc *DerivationUseCase) backoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.initialBackoff
	b.MaxInterval = uc.maxBackoff
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(uc.maxAttempts-1)), ctx) //nolint:gosec // maxAttempts >= 1
}

// Retrying cannot fix these.
func isPermanent(err error) bool {
	return errors.Is(err, errs.ErrUnsupportedImage) ||
		errors.Is(err, errs.ErrRecordNotFound)
}
