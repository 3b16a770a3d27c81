package catalog

import (
	"fmt"
	"strings"
)

// ProviderType selects the parser used for a provider.
type ProviderType string

// Supported provider types.
const (
	ProviderM3U    ProviderType = "m3u"
	ProviderXtream ProviderType = "xtream"
)

// ParseProviderType converts a configuration value to a ProviderType.
func ParseProviderType(s string) (ProviderType, error) {
	switch t := ProviderType(strings.ToLower(strings.TrimSpace(s))); t {
	case ProviderM3U, ProviderXtream:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProviderType, s)
	}
}

// Provider is the user-entered configuration of one catalog source.
type Provider struct {
	Name     string
	Type     ProviderType
	URL      string
	Username string
	Password string

	// EPGURL points at an XMLTV guide. Empty means no guide unless one of
	// the fallbacks below is enabled.
	EPGURL string

	// XtreamEPG uses the provider's xmltv.php endpoint when EPGURL is empty.
	XtreamEPG bool

	// PlaylistEPG uses the url-tvg advertised by the M3U header when EPGURL is empty.
	PlaylistEPG bool

	// GuideMatchedOnly drops guide data for channels the catalog does not carry.
	GuideMatchedOnly bool

	// GuideDays keeps only programmes starting between one day ago and
	// GuideDays days ahead. Zero keeps everything.
	GuideDays int
}
