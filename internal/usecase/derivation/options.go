package derivation

import (
	"time"

	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
)

type Option func(*DerivationUseCase)

// ThumbnailSize is the length of the thumbnail's shorter side in pixels.
func ThumbnailSize(px int) Option {
	return func(uc *DerivationUseCase) {
		if px > 0 {
			uc.thumbnailSize = px
		}
	}
}

// MaxAttempts counts the first run.
func MaxAttempts(n int) Option {
	return func(uc *DerivationUseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func Backoff(initial, maxInterval time.Duration) Option {
	return func(uc *DerivationUseCase) {
		uc.initialBackoff = initial
		uc.maxBackoff = maxInterval
	}
}

func CPUTimeout(d time.Duration) Option {
	return func(uc *DerivationUseCase) {
		if d > 0 {
			uc.cpuTimeout = d
		}
	}
}

func DeadLetterTimeout(d time.Duration) Option {
	return func(uc *DerivationUseCase) {
		if d > 0 {
			uc.deadLetterTimeout = d
		}
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(uc *DerivationUseCase) {
		uc.metrics = m
	}
}
