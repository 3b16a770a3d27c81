package catalog

import (
	"strings"
	"time"
)

// CivilLayout is the UTC civil timestamp layout used when EPG times are rendered.
const CivilLayout = "2006-01-02 15:04:05"

// EpgEntry is one scheduled broadcast from a program guide.
// Start and End are always in UTC.
type EpgEntry struct {
	ChannelID   string
	Title       string
	Description string
	Category    string
	Start       time.Time
	End         time.Time
}

// NewEpgEntry builds an entry, normalizing both times to UTC.
// Returns ErrEmptyChannelID, ErrEmptyTitle or ErrInvalidRange when the entry
// cannot be scheduled.
func NewEpgEntry(channelID, title, description, category string, start, end time.Time) (EpgEntry, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return EpgEntry{}, ErrEmptyChannelID
	}
	if strings.TrimSpace(title) == "" {
		return EpgEntry{}, ErrEmptyTitle
	}
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return EpgEntry{}, ErrInvalidRange
	}
	return EpgEntry{
		ChannelID:   channelID,
		Title:       title,
		Description: description,
		Category:    category,
		Start:       start,
		End:         end,
	}, nil
}

// StartCivil returns the start time as a UTC civil timestamp.
func (e EpgEntry) StartCivil() string {
	return e.Start.UTC().Format(CivilLayout)
}

// EndCivil returns the end time as a UTC civil timestamp.
func (e EpgEntry) EndCivil() string {
	return e.End.UTC().Format(CivilLayout)
}

// Duration returns how long the programme runs.
func (e EpgEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// GuideChannel is a <channel> declaration from an XMLTV document.
type GuideChannel struct {
	ID          string
	DisplayName string
	Icon        string
}
