package m3u

import (
	"fmt"
	"io"
	"strings"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

// Encoder writes channel records as an #EXTM3U playlist.
type Encoder struct {
	guideURLs []string
	channels  []catalog.ChannelRecord
}

// NewEncoder creates an encoder advertising the given EPG URLs in its header.
func NewEncoder(guideURLs ...string) *Encoder {
	urls := make([]string, 0, len(guideURLs))
	for _, u := range guideURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return &Encoder{guideURLs: urls}
}

// AddChannel queues a channel for encoding.
func (e *Encoder) AddChannel(ch catalog.ChannelRecord) {
	e.channels = append(e.channels, ch)
}

// AddChannels queues several channels for encoding.
func (e *Encoder) AddChannels(chs []catalog.ChannelRecord) {
	e.channels = append(e.channels, chs...)
}

// Encode writes the playlist to w.
func (e *Encoder) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, headerPrefix); err != nil {
		return err
	}

	if len(e.guideURLs) > 0 {
		if _, err := fmt.Fprintf(w, " url-tvg=\"%s\"", attrValue(strings.Join(e.guideURLs, ","))); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	for _, ch := range e.channels {
		if err := encodeChannel(w, ch); err != nil {
			return err
		}
	}

	return nil
}

func encodeChannel(w io.Writer, ch catalog.ChannelRecord) error {
	var b strings.Builder
	b.WriteString(extinfPrefix)
	b.WriteString("-1")

	writeAttr(&b, "tvg-id", ch.EPGChannelID)
	writeAttr(&b, "tvg-name", ch.EPGDisplayName)
	writeAttr(&b, "tvg-logo", ch.Logo)
	writeAttr(&b, "tvg-country", ch.Country)
	writeAttr(&b, "tvg-language", ch.Language)
	writeAttr(&b, "group-title", ch.Category)

	b.WriteByte(',')
	b.WriteString(singleLine(ch.Name))
	b.WriteByte('\n')
	b.WriteString(singleLine(ch.StreamURL))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, " %s=\"%s\"", key, attrValue(value))
}

// attrValue makes value safe inside a double-quoted attribute.
func attrValue(value string) string {
	return strings.ReplaceAll(singleLine(value), `"`, "'")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
