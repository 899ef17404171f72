package infrastructure

import (
	"context"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/segmentio/kafka-go"
)

type (
	ImageProcessor interface {
		Thumbnail(ctx context.Context, data []byte, size int) (dto.Thumbnail, error)
	}

	EventsReader interface {
		ReadEvent(ctx context.Context) (kafka.Message, error)
		CommitEvent(ctx context.Context, event kafka.Message) error
		Close() error
	}

	EventsSender interface {
		SendEvents(ctx context.Context, letters []*entity.DeadLetter) error
		Close() error
	}
)
