package coord

import "github.com/google/uuid"

// NewID returns a fresh random identifier for coordinates and parameters.
func NewID() string {
	return uuid.NewString()
}

// shortID trims an identifier for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
