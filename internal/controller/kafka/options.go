package kafka

import "time"

type Option func(*KafkaController)

// RetryBackoff bounds the wait between attempts at a message that failed.
func RetryBackoff(initial, maxInterval time.Duration) Option {
	return func(c *KafkaController) {
		if initial > 0 {
			c.retryInitial = initial
		}
		if maxInterval > 0 {
			c.retryMax = maxInterval
		}
	}
}
