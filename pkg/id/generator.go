// Package id generates identifiers for planning runs and seeded records.
package id

import (
	"github.com/google/uuid"
)

// NewRunID returns a unique identifier for one planning run.
func NewRunID() string {
	return uuid.NewString()
}

// NewShort returns an 8 character identifier with the given prefix, e.g.
// "task-1a2b3c4d". Used for records seeded without an explicit ID.
func NewShort(prefix string) string {
	s := uuid.NewString()[:8]
	if prefix == "" {
		return s
	}
	return prefix + "-" + s
}
