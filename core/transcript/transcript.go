// Package transcript keeps the ordered record of a tutoring session:
// user turns, teacher turns assembled from streamed fragments, and
// system notices. At most one teacher entry is ever in flight
// (non-final); sealing it makes it immutable.
package transcript

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleTeacher Role = "teacher"
	RoleSystem  Role = "system"
)

// Entry is one transcript turn. Final entries are never mutated; the
// single non-final entry grows as fragments arrive and is sealed by
// the closing payload.
type Entry struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
	Final     bool
}

func newEntry(role Role, text string, final bool) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
		Final:     final,
	}
}
