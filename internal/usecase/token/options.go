package token

import "time"

type Option func(*TokenUseCase)

// Clock replaces time.Now for issuing and validating.
func Clock(now func() time.Time) Option {
	return func(uc *TokenUseCase) {
		uc.now = now
	}
}
