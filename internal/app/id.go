package app

import "github.com/google/uuid"

// newID returns a UUIDv7, so ids sort roughly by creation time and break
// created_at ties in newest-first listings the same way on every query.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
