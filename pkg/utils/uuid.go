package utils

import "github.com/google/uuid"

// NewRunID returns a random (v4) identifier for a validation run.
func NewRunID() string {
	return uuid.NewString()
}
