package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/infrastructure"
	kafkapc "github.com/andreyxaxa/memories-server/internal/infrastructure/kafka"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultRetryInitial = 500 * time.Millisecond
	_defaultRetryMax     = 30 * time.Second
)

// KafkaController feeds storage notifications to the derivation use case.
type KafkaController struct {
	derivation usecase.DerivationUseCase
	er         infrastructure.EventsReader
	logger     logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	retryInitial   time.Duration
	retryMax       time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	derivation usecase.DerivationUseCase,
	er infrastructure.EventsReader,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
	opts ...Option,
) *KafkaController {
	if workers < 1 {
		workers = 1
	}

	c := &KafkaController{
		derivation:     derivation,
		er:             er,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		retryInitial:   _defaultRetryInitial,
		retryMax:       _defaultRetryMax,
		workers:        workers,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// one queue per worker, a partition always lands on the same one
	tasks := make([]chan kafka.Message, c.workers)
	for i := range tasks {
		tasks[i] = make(chan kafka.Message, 2)

		c.wg.Add(1)
		go c.worker(tasks[i])
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			for _, ch := range tasks {
				close(ch)
			}
		}()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				event, err := c.er.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.er.ReadEvent")
					}
					continue
				}

				select {
				case tasks[event.Partition%c.workers] <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// handleMessage returns an error when the message must not be committed.
func (c *KafkaController) handleMessage(ctx context.Context, msg kafka.Message) error {
	events, err := dto.ParseStorageNotification(msg.Value)
	if err != nil {
		// redelivery cannot fix a malformed payload
		c.logger.Warn("KafkaController - handleMessage - dropping offset %d: %v", msg.Offset, err)

		return nil
	}

	attempt := kafkapc.RedriveAttempt(msg)

	var failed error
	for _, event := range events {
		event.RedriveAttempt = attempt

		state, err := c.derivation.Handle(ctx, event)
		if err != nil {
			failed = errors.Join(failed, err)
			continue
		}

		c.logger.Debug("KafkaController - handleMessage - key=%s state=%s", event.Key, state)
	}

	if failed != nil {
		return fmt.Errorf("KafkaController - handleMessage: %w", failed)
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		if c.ctx.Err() != nil {
			// shutting down: leave the rest uncommitted
			continue
		}

		c.process(event)
	}
}

// process retries the message until it is handled or the controller stops.
// The next message of the partition waits: committing it would move the
// offset past this one.
func (c *KafkaController) process(event kafka.Message) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = c.retryMax
	b.MaxElapsedTime = 0

	operation := func() error {
		processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
		defer processCancel()

		return c.safeHandle(processCtx, event)
	}

	notify := func(err error, next time.Duration) {
		c.logger.Error(err, "KafkaController - process - partition=%d offset=%d retry in %s", event.Partition, event.Offset, next)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, c.ctx), notify)
	if err != nil {
		c.logger.Warn("KafkaController - process - partition=%d offset=%d left uncommitted: %v", event.Partition, event.Offset, err)

		return
	}

	commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.commitTimeout)
	err = c.er.CommitEvent(commitCtx, event)
	commitCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - process - c.er.CommitEvent")
	}
}

func (c *KafkaController) safeHandle(ctx context.Context, event kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("KafkaController - safeHandle - panic: %v", r)
		}
	}()

	return c.handleMessage(ctx, event)
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		if err := c.er.Close(); err != nil {
			c.logger.Error(err, "KafkaController - Shutdown - c.er.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
