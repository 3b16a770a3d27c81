package catalog

const (
	// DefaultMovieCategory is used when a VOD entry carries no category.
	DefaultMovieCategory = "Movies"
	// DefaultSeriesCategory is used when a series entry carries no category.
	DefaultSeriesCategory = "Series"
)

// MovieRecord is a normalized video-on-demand title.
// Year, DurationMinutes and Rating are zero when unknown.
type MovieRecord struct {
	Name            string
	Year            int
	Category        string
	Poster          string
	Synopsis        string
	DurationMinutes int
	Rating          float64
	StreamURL       string
	ProviderID      string
	IsAdult         bool
}

// SeriesRecord is a container record for a show. Episodes are resolved later
// through SeriesID.
type SeriesRecord struct {
	Name     string
	Year     int
	Category string
	Cover    string
	Synopsis string
	Rating   float64
	SeriesID string
	IsAdult  bool
}
