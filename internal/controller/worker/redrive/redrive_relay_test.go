package redrive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type lettersMock struct {
	mock.Mock
}

func (m *lettersMock) Record(ctx context.Context, event entity.StorageEvent, reason string, permanent bool) error {
	return m.Called(ctx, event, reason, permanent).Error(0)
}

func (m *lettersMock) ClaimPending(ctx context.Context, limit, maxRetries int) ([]*entity.DeadLetter, error) {
	args := m.Called(ctx, limit, maxRetries)
	letters, _ := args.Get(0).([]*entity.DeadLetter)
	return letters, args.Error(1)
}

func (m *lettersMock) MarkAsProcessedBatch(ctx context.Context, letters []*entity.DeadLetter) error {
	return m.Called(ctx, letters).Error(0)
}

func (m *lettersMock) IncrementRetryCountBatch(ctx context.Context, letters []*entity.DeadLetter) error {
	return m.Called(ctx, letters).Error(0)
}

func (m *lettersMock) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	return m.Called(ctx, maxRetries).Error(0)
}

func (m *lettersMock) Cleanup(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type senderMock struct {
	mock.Mock
}

func (m *senderMock) SendEvents(ctx context.Context, letters []*entity.DeadLetter) error {
	return m.Called(ctx, letters).Error(0)
}

func (m *senderMock) Close() error {
	return m.Called().Error(0)
}

func newRelay(letters *lettersMock, sender *senderMock, poll time.Duration) *RedriveRelay {
	return New(letters, sender, nil, logger.New("error"), poll, time.Hour, time.Hour, time.Second, 10, 3)
}

func TestRedriveRelay_ProcessBatch(t *testing.T) {
	batch := []*entity.DeadLetter{{ID: uuid.New(), ObjectKey: "a.jpg"}, {ID: uuid.New(), ObjectKey: "b.jpg"}}

	t.Run("sent letters are marked processed", func(t *testing.T) {
		letters, sender := &lettersMock{}, &senderMock{}
		letters.On("ClaimPending", mock.Anything, 10, 3).Return(batch, nil)
		sender.On("SendEvents", mock.Anything, batch).Return(nil)
		letters.On("MarkAsProcessedBatch", mock.Anything, batch).Return(nil)

		newRelay(letters, sender, time.Hour).processBatch(context.Background())

		letters.AssertExpectations(t)
		sender.AssertExpectations(t)
		letters.AssertNotCalled(t, "IncrementRetryCountBatch", mock.Anything, mock.Anything)
	})

	t.Run("send failure bumps retry count", func(t *testing.T) {
		letters, sender := &lettersMock{}, &senderMock{}
		letters.On("ClaimPending", mock.Anything, 10, 3).Return(batch, nil)
		sender.On("SendEvents", mock.Anything, batch).Return(errors.New("broker down"))
		letters.On("IncrementRetryCountBatch", mock.Anything, batch).Return(nil)

		newRelay(letters, sender, time.Hour).processBatch(context.Background())

		letters.AssertExpectations(t)
		letters.AssertNotCalled(t, "MarkAsProcessedBatch", mock.Anything, mock.Anything)
	})

	t.Run("nothing pending sends nothing", func(t *testing.T) {
		letters, sender := &lettersMock{}, &senderMock{}
		letters.On("ClaimPending", mock.Anything, 10, 3).Return(nil, nil)

		newRelay(letters, sender, time.Hour).processBatch(context.Background())

		sender.AssertNotCalled(t, "SendEvents", mock.Anything, mock.Anything)
	})

	t.Run("claim failure sends nothing", func(t *testing.T) {
		letters, sender := &lettersMock{}, &senderMock{}
		letters.On("ClaimPending", mock.Anything, 10, 3).Return(nil, errors.New("db down"))

		newRelay(letters, sender, time.Hour).processBatch(context.Background())

		sender.AssertNotCalled(t, "SendEvents", mock.Anything, mock.Anything)
	})
}

func TestRedriveRelay_StartShutdown(t *testing.T) {
	letters, sender := &lettersMock{}, &senderMock{}
	polled := make(chan struct{}, 1)
	letters.On("ClaimPending", mock.Anything, 10, 3).Return(nil, nil).Run(func(mock.Arguments) {
		select {
		case polled <- struct{}{}:
		default:
		}
	})
	sender.On("Close").Return(nil)

	r := newRelay(letters, sender, 5*time.Millisecond)
	require.NoError(t, r.Start(context.Background()))
	require.Error(t, r.Start(context.Background()))

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("relay never polled")
	}

	require.NoError(t, r.Shutdown(context.Background()))
	sender.AssertCalled(t, "Close")
	assert.True(t, r.started.Load())
}
