package redrive

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/memories-server/internal/infrastructure"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
)

// RedriveRelay re-publishes pending dead letters onto the notification topic.
type RedriveRelay struct {
	letters usecase.DeadLetterUseCase
	es      infrastructure.EventsSender
	metrics *metrics.Metrics
	logger  logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	letters usecase.DeadLetterUseCase,
	es infrastructure.EventsSender,
	m *metrics.Metrics,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *RedriveRelay {
	return &RedriveRelay{
		letters:             letters,
		es:                  es,
		metrics:             m,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *RedriveRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("RedriveRelay - Start - relay already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processBatch(batchCtx)
		batchCancel()
	})

	r.worker(r.markFailedInterval, func() {
		err := r.letters.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "RedriveRelay - Start - worker - r.letters.MarkMaxRetriesAsFailed")
		}
	})

	r.worker(r.cleanupInterval, func() {
		err := r.letters.Cleanup(r.ctx)
		if err != nil {
			r.logger.Error(err, "RedriveRelay - Start - worker - r.letters.Cleanup")
		}
	})

	return nil
}

func (r *RedriveRelay) processBatch(ctx context.Context) {
	letters, err := r.letters.ClaimPending(ctx, r.batchSize, r.maxRetries)
	if err != nil {
		r.logger.Error(err, "RedriveRelay - processBatch - r.letters.ClaimPending")

		return
	}
	if len(letters) == 0 {
		return
	}

	err = r.es.SendEvents(ctx, letters)
	r.metrics.RecordRedrive(len(letters), err)
	if err != nil {
		r.logger.Error(err, "RedriveRelay - processBatch - r.es.SendEvents")

		// back to pending with one more retry on the clock
		incErr := r.letters.IncrementRetryCountBatch(ctx, letters)
		if incErr != nil {
			r.logger.Error(incErr, "RedriveRelay - processBatch - r.letters.IncrementRetryCountBatch")
		}
		return
	}

	err = r.letters.MarkAsProcessedBatch(ctx, letters)
	if err != nil {
		r.logger.Error(err, "RedriveRelay - processBatch - r.letters.MarkAsProcessedBatch")

		return
	}

	r.logger.Info("redrove %d dead letters", len(letters))
}

func (r *RedriveRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *RedriveRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		if err := r.es.Close(); err != nil {
			r.logger.Error(err, "RedriveRelay - Shutdown - r.es.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("RedriveRelay - Shutdown: %w", ctx.Err())
	}
}
