package entity

import "github.com/google/uuid"

// Identity is the caller resolved from a bearer token.
type Identity struct {
	DisplayName string
	UserID      uuid.UUID
}
