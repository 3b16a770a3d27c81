package catalog

import "time"

// Snapshot is the stored result of one successful provider sync.
type Snapshot struct {
	SyncID   string
	Provider string
	SyncedAt time.Time
	Outcome  Outcome
}
