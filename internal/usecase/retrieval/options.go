package retrieval

import (
	"time"

	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
)

type Option func(*RetrievalUseCase)

func Concurrency(n int) Option {
	return func(uc *RetrievalUseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

func GetURLExpiry(d time.Duration) Option {
	return func(uc *RetrievalUseCase) {
		if d > 0 {
			uc.getURLExpiry = d
		}
	}
}

func ThumbnailURLExpiry(d time.Duration) Option {
	return func(uc *RetrievalUseCase) {
		if d > 0 {
			uc.thumbnailURLExpiry = d
		}
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(uc *RetrievalUseCase) {
		uc.metrics = m
	}
}
