package catalog

import "errors"

// Domain errors for catalog ingestion.
var (
	// Record validation errors
	ErrEmptyName      = errors.New("catalog record name cannot be empty")
	ErrEmptyTitle     = errors.New("epg entry title cannot be empty")
	ErrEmptyChannelID = errors.New("epg entry channel id cannot be empty")
	ErrInvalidStream  = errors.New("invalid stream url")
	ErrInvalidRange   = errors.New("epg entry must start before it ends")

	// Fatal parse errors
	ErrInvalidFormat  = errors.New("invalid feed format")
	ErrNoProgrammes   = errors.New("no valid programmes found in xmltv document")
	ErrAuthentication = errors.New("xtream authentication failed")

	// Provider errors
	ErrUnknownProviderType = errors.New("unknown provider type")
	ErrSnapshotNotFound    = errors.New("catalog snapshot not found")
)
