package catalog

import "fmt"

// Outcome is the result of a structurally successful parse. It may hold zero
// records. Warnings describe entries that were skipped; they never abort a run.
// Fatal failures are reported as an error instead of an Outcome.
type Outcome struct {
	Channels      []ChannelRecord
	Movies        []MovieRecord
	Series        []SeriesRecord
	Programmes    []EpgEntry
	GuideChannels []GuideChannel

	// GuideURL is the EPG location a playlist header advertises, if any.
	GuideURL string

	Warnings []string
}

// Summary holds record counts for reporting.
type Summary struct {
	Channels      int
	AdultChannels int
	Movies        int
	Series        int
	Programmes    int
	Categories    int
	Warnings      int
}

// Summary counts the records in the outcome.
func (o Outcome) Summary() Summary {
	categories := make(map[string]struct{})
	s := Summary{
		Channels:   len(o.Channels),
		Movies:     len(o.Movies),
		Series:     len(o.Series),
		Programmes: len(o.Programmes),
		Warnings:   len(o.Warnings),
	}
	for _, ch := range o.Channels {
		categories[ch.Category] = struct{}{}
		if ch.IsAdult {
			s.AdultChannels++
		}
	}
	for _, m := range o.Movies {
		categories[m.Category] = struct{}{}
	}
	for _, sr := range o.Series {
		categories[sr.Category] = struct{}{}
	}
	s.Categories = len(categories)
	return s
}

// Merge appends the records and warnings of other to o and returns the result.
// Used by callers that combine a catalog outcome with its program guide.
func (o Outcome) Merge(other Outcome) Outcome {
	o.Channels = append(o.Channels, other.Channels...)
	o.Movies = append(o.Movies, other.Movies...)
	o.Series = append(o.Series, other.Series...)
	o.Programmes = append(o.Programmes, other.Programmes...)
	o.GuideChannels = append(o.GuideChannels, other.GuideChannels...)
	o.Warnings = append(o.Warnings, other.Warnings...)
	if o.GuideURL == "" {
		o.GuideURL = other.GuideURL
	}
	return o
}

// String renders the summary the way a provider setup screen reports it.
func (s Summary) String() string {
	return fmt.Sprintf("%d channels (%d adult), %d movies, %d series, %d programmes, %d categories, %d warnings",
		s.Channels, s.AdultChannels, s.Movies, s.Series, s.Programmes, s.Categories, s.Warnings)
}
