package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable activity record. Entries are only ever
// appended, inside the same transaction as the transition they record.
type Entry struct {
	ID        uuid.UUID
	ActorName string
	Activity  string
	CreatedAt time.Time
}
