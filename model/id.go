package model

import "github.com/google/uuid"

// NewID returns a time-ordered UUIDv7 string, so ordering rows by id follows
// insertion order.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
