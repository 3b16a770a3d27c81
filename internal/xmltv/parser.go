package xmltv

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/port/driven"
	"github.com/alorle/catalog-ingest/internal/unpack"
)

// DefaultTimeout bounds a single guide download. Guides are large.
const DefaultTimeout = 60 * time.Second

// Config holds the optional settings of a Parser.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger

	// MaxSize caps the size of a decompressed body. Zero means unpack.DefaultLimit.
	MaxSize int64
}

// Parser turns XMLTV documents into programme guide entries.
// It keeps no state between calls and may be shared between goroutines.
type Parser struct {
	fetcher   driven.Fetcher
	timeout   time.Duration
	userAgent string
	maxSize   int64
	logger    *slog.Logger
}

// NewParser creates a guide parser. Zero Config fields fall back to defaults.
func NewParser(fetcher driven.Fetcher, cfg Config) *Parser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Parser{
		fetcher:   fetcher,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		maxSize:   cfg.MaxSize,
		logger:    cfg.Logger,
	}
}

// Parse downloads the guide at url and parses it.
func (p *Parser) Parse(ctx context.Context, url string) (catalog.Outcome, error) {
	p.logger.Debug("fetching XMLTV guide")

	body, err := p.fetcher.Fetch(ctx, driven.FetchRequest{
		URL:       url,
		Timeout:   p.timeout,
		UserAgent: p.userAgent,
	})
	if err != nil {
		return catalog.Outcome{}, fmt.Errorf("failed to fetch XMLTV guide: %w", err)
	}

	outcome, err := p.ParseGuide(body)
	if err != nil {
		return catalog.Outcome{}, err
	}

	p.logger.Info("parsed XMLTV guide",
		"programmes", len(outcome.Programmes),
		"channels", len(outcome.GuideChannels),
		"warnings", len(outcome.Warnings))
	return outcome, nil
}

// ParseGuide parses an already downloaded guide. Programmes are decoded one
// element at a time so large guides are never held as a tree.
func (p *Parser) ParseGuide(body []byte) (catalog.Outcome, error) {
	body, err := unpack.Bytes(body, p.maxSize)
	if err != nil {
		return catalog.Outcome{}, fmt.Errorf("failed to unpack XMLTV guide: %w", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	if err := findRoot(dec); err != nil {
		return catalog.Outcome{}, err
	}

	var outcome catalog.Outcome
	for {
		tok, err := dec.Token()
		if err != nil {
			return catalog.Outcome{}, fmt.Errorf("%w: %w", catalog.ErrInvalidFormat, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "programme":
				var px programmeXML
				if err := dec.DecodeElement(&px, &el); err != nil {
					return catalog.Outcome{}, fmt.Errorf("%w: %w", catalog.ErrInvalidFormat, err)
				}
				entry, warning, ok := px.toEntry()
				if !ok {
					outcome.Warnings = append(outcome.Warnings, warning)
					continue
				}
				outcome.Programmes = append(outcome.Programmes, entry)

			case "channel":
				var cx channelXML
				if err := dec.DecodeElement(&cx, &el); err != nil {
					return catalog.Outcome{}, fmt.Errorf("%w: %w", catalog.ErrInvalidFormat, err)
				}
				ch, ok := cx.toGuideChannel()
				if !ok {
					outcome.Warnings = append(outcome.Warnings, "channel missing id attribute")
					continue
				}
				outcome.GuideChannels = append(outcome.GuideChannels, ch)

			default:
				if err := dec.Skip(); err != nil {
					return catalog.Outcome{}, fmt.Errorf("%w: %w", catalog.ErrInvalidFormat, err)
				}
			}

		case xml.EndElement:
			// Only the root can close here.
			if len(outcome.Programmes) == 0 {
				return catalog.Outcome{}, catalog.ErrNoProgrammes
			}
			return outcome, nil
		}
	}
}

// findRoot advances dec past the root start element, which must be <tv>.
func findRoot(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: no root element", catalog.ErrInvalidFormat)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", catalog.ErrInvalidFormat, err)
		}
		if el, ok := tok.(xml.StartElement); ok {
			if el.Name.Local != "tv" {
				return fmt.Errorf("%w: root element must be <tv>, got <%s>", catalog.ErrInvalidFormat, el.Name.Local)
			}
			return nil
		}
	}
}

type textXML struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

// firstText returns the first value that is non-empty after cleanup.
func firstText(values []textXML) string {
	for _, v := range values {
		if s := cleanText(v.Value); s != "" {
			return s
		}
	}
	return ""
}

// programmeXML represents a programme element in the guide.
type programmeXML struct {
	Channel    string    `xml:"channel,attr"`
	Start      string    `xml:"start,attr"`
	Stop       string    `xml:"stop,attr"`
	Titles     []textXML `xml:"title"`
	Descs      []textXML `xml:"desc"`
	Categories []textXML `xml:"category"`
}

// toEntry validates the programme. It returns either an entry or the warning
// explaining why the programme was skipped.
func (px programmeXML) toEntry() (catalog.EpgEntry, string, bool) {
	channel := strings.TrimSpace(px.Channel)
	if channel == "" {
		return catalog.EpgEntry{}, "programme missing channel attribute", false
	}

	startRaw, stopRaw := strings.TrimSpace(px.Start), strings.TrimSpace(px.Stop)
	if startRaw == "" {
		return catalog.EpgEntry{}, "programme missing start time on channel " + channel, false
	}
	if stopRaw == "" {
		return catalog.EpgEntry{}, "programme missing stop time on channel " + channel, false
	}

	start, okStart := ParseTime(startRaw)
	end, okEnd := ParseTime(stopRaw)
	if !okStart || !okEnd {
		return catalog.EpgEntry{}, "invalid time format for programme on channel " + channel, false
	}
	if !end.After(start) {
		return catalog.EpgEntry{}, "programme ends before it starts on channel " + channel, false
	}

	title := firstText(px.Titles)
	if title == "" {
		return catalog.EpgEntry{}, "programme missing title on channel " + channel, false
	}

	entry, err := catalog.NewEpgEntry(channel, title, firstText(px.Descs), firstText(px.Categories), start, end)
	if err != nil {
		return catalog.EpgEntry{}, fmt.Sprintf("invalid programme on channel %s: %v", channel, err), false
	}
	return entry, "", true
}

// channelXML represents a channel element in the guide.
type channelXML struct {
	ID           string    `xml:"id,attr"`
	DisplayNames []textXML `xml:"display-name"`
	Icons        []iconXML `xml:"icon"`
}

// iconXML represents an icon element with a src attribute.
type iconXML struct {
	Src string `xml:"src,attr"`
}

func (cx channelXML) toGuideChannel() (catalog.GuideChannel, bool) {
	id := strings.TrimSpace(cx.ID)
	if id == "" {
		return catalog.GuideChannel{}, false
	}

	ch := catalog.GuideChannel{ID: id, DisplayName: firstText(cx.DisplayNames)}
	if ch.DisplayName == "" {
		ch.DisplayName = id
	}
	for _, icon := range cx.Icons {
		if src := strings.TrimSpace(icon.Src); src != "" {
			ch.Icon = src
			break
		}
	}
	return ch, true
}

// cleanText decodes HTML entities left in the text and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
