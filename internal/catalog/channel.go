package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultChannelCategory is used when a feed does not group a channel.
const DefaultChannelCategory = "General"

// streamSchemes lists the URL schemes a playable stream may use.
var streamSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"rtmp":  true,
	"rtsp":  true,
}

// ChannelRecord is a normalized live channel.
// Optional fields are empty when the feed does not carry them.
type ChannelRecord struct {
	Name           string
	Category       string
	Logo           string
	StreamURL      string
	EPGChannelID   string
	EPGDisplayName string
	Country        string
	Language       string
	IsAdult        bool
}

// Validate checks that the channel has a name and a playable stream URL.
func (c ChannelRecord) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !IsValidStreamURL(c.StreamURL) {
		return fmt.Errorf("%w: %q", ErrInvalidStream, c.StreamURL)
	}
	return nil
}

// IsValidStreamURL reports whether raw is an absolute URL with a host and one of
// the http, https, rtmp or rtsp schemes.
func IsValidStreamURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return streamSchemes[strings.ToLower(u.Scheme)] && u.Host != ""
}
