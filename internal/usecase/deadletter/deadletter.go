package deadletter

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/repo"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/google/uuid"
)

type DeadLetterUseCase struct {
	letters    repo.DeadLetterRepo
	transactor repo.Transactor

	maxRedrives int

	logger logger.Interface
}

func New(letters repo.DeadLetterRepo, transactor repo.Transactor, maxRedrives int, l logger.Interface) *DeadLetterUseCase {
	return &DeadLetterUseCase{
		letters:     letters,
		transactor:  transactor,
		maxRedrives: maxRedrives,
		logger:      l,
	}
}

// Record stores an event that failed derivation. Permanent failures and events
// that used up their redrive budget are stored as failed and never redriven.
func (uc *DeadLetterUseCase) Record(ctx context.Context, event entity.StorageEvent, reason string, permanent bool) error {
	payload, err := dto.NewStorageNotification(event)
	if err != nil {
		return fmt.Errorf("DeadLetterUseCase - Record - dto.NewStorageNotification: %w", err)
	}

	status := entity.Pending
	if permanent || event.RedriveAttempt >= uc.maxRedrives {
		status = entity.Failed
	}

	dl := &entity.DeadLetter{
		ID:             uuid.New(),
		ObjectKey:      event.Key,
		Bucket:         event.Bucket,
		ImageID:        event.ImageID,
		Payload:        payload,
		Reason:         reason,
		Status:         status,
		RedriveAttempt: event.RedriveAttempt,
		CreatedAt:      time.Now(),
	}

	err = uc.letters.Create(ctx, dl)
	if err != nil {
		return fmt.Errorf("DeadLetterUseCase - Record - uc.letters.Create: %w", err)
	}

	uc.logger.Warn("dead letter %s: key=%s status=%s redrive_attempt=%d reason=%s",
		dl.ID, dl.ObjectKey, dl.Status, dl.RedriveAttempt, dl.Reason)

	return nil
}

// ClaimPending takes up to limit pending letters and marks them processing
// in one transaction.
func (uc *DeadLetterUseCase) ClaimPending(ctx context.Context, limit, maxRetries int) ([]*entity.DeadLetter, error) {
	var letters []*entity.DeadLetter

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		letters, err = uc.letters.GetPending(ctx, limit, maxRetries)
		if err != nil {
			return fmt.Errorf("uc.letters.GetPending: %w", err)
		}
		if len(letters) == 0 {
			return nil
		}

		err = uc.letters.MarkAsProcessingBatch(ctx, ids(letters))
		if err != nil {
			return fmt.Errorf("uc.letters.MarkAsProcessingBatch: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("DeadLetterUseCase - ClaimPending - uc.transactor.WithinTransaction: %w", err)
	}

	return letters, nil
}

func (uc *DeadLetterUseCase) MarkAsProcessedBatch(ctx context.Context, letters []*entity.DeadLetter) error {
	err := uc.letters.MarkAsProcessedBatch(ctx, ids(letters))
	if err != nil {
		return fmt.Errorf("DeadLetterUseCase - MarkAsProcessedBatch - uc.letters.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (uc *DeadLetterUseCase) IncrementRetryCountBatch(ctx context.Context, letters []*entity.DeadLetter) error {
	err := uc.letters.IncrementRetryCountBatch(ctx, ids(letters))
	if err != nil {
		return fmt.Errorf("DeadLetterUseCase - IncrementRetryCountBatch - uc.letters.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *DeadLetterUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	count, err := uc.letters.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("DeadLetterUseCase - MarkMaxRetriesAsFailed - uc.letters.MarkMaxRetriesAsFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Warn("dead letters given up after %d redrive publish attempts, count = %d", maxRetries, count)
	}

	return nil
}

func (uc *DeadLetterUseCase) Cleanup(ctx context.Context) error {
	count, err := uc.letters.DeleteProcessed(ctx)
	if err != nil {
		return fmt.Errorf("DeadLetterUseCase - Cleanup - uc.letters.DeleteProcessed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted redriven dead letters, count = %d", count)
	}

	return nil
}

func ids(letters []*entity.DeadLetter) uuid.UUIDs {
	out := make(uuid.UUIDs, 0, len(letters))
	for _, dl := range letters {
		out = append(out, dl.ID)
	}

	return out
}
