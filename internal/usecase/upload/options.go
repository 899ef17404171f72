package upload

import (
	"time"

	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
)

type Option func(*UploadUseCase)

func MaxFiles(n int) Option {
	return func(uc *UploadUseCase) {
		if n > 0 {
			uc.maxFiles = n
		}
	}
}

func Concurrency(n int) Option {
	return func(uc *UploadUseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

func PutURLExpiry(d time.Duration) Option {
	return func(uc *UploadUseCase) {
		if d > 0 {
			uc.putURLExpiry = d
		}
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(uc *UploadUseCase) {
		uc.metrics = m
	}
}
