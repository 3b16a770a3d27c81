package xtream

import (
	"net/url"
	"strings"
)

// Credentials identify an account on an Xtream-Codes server.
type Credentials struct {
	BaseURL  string
	Username string
	Password string
}

func (c Credentials) base() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

// apiURL builds the player_api.php URL. An empty action is the
// authentication call.
func (c Credentials) apiURL(action string) string {
	q := url.Values{}
	q.Set("username", c.Username)
	q.Set("password", c.Password)
	if action != "" {
		q.Set("action", action)
	}
	return c.base() + "/player_api.php?" + q.Encode()
}

func (c Credentials) streamURL(kind, id, ext string) string {
	return c.base() + "/" + kind + "/" +
		url.PathEscape(c.Username) + "/" +
		url.PathEscape(c.Password) + "/" +
		url.PathEscape(id) + "." + ext
}

// LiveURL returns the MPEG-TS URL of a live stream.
func (c Credentials) LiveURL(streamID string) string {
	return c.streamURL("live", streamID, "ts")
}

// MovieURL returns the URL of a VOD stream. ext defaults to mp4.
func (c Credentials) MovieURL(streamID, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "mp4"
	}
	return c.streamURL("movie", streamID, ext)
}

// GuideURL returns the server's XMLTV endpoint for the account.
func GuideURL(c Credentials) string {
	q := url.Values{}
	q.Set("username", c.Username)
	q.Set("password", c.Password)
	return c.base() + "/xmltv.php?" + q.Encode()
}
