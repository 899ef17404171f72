package dto

import "time"

// PresignedURL is a time-limited request the client can perform without credentials.
// Headers lists the signed headers the client must send as-is.
type PresignedURL struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}
