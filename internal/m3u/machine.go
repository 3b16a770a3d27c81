package m3u

import (
	"fmt"
	"strings"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/normalize"
)

const (
	extinfPrefix = "#EXTINF:"
	extgrpPrefix = "#EXTGRP:"
)

type state int

const (
	stateIdle state = iota
	statePending
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePending:
		return "pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// draft is a channel whose EXTINF line has been read but whose URL has not.
type draft struct {
	line     int
	record   catalog.ChannelRecord
	hasGroup bool
}

// machine is the parser state between two lines. It is a value: transition
// never mutates its input.
type machine struct {
	norm    *normalize.Normalizer
	state   state
	pending draft
}

func newMachine(norm *normalize.Normalizer) machine {
	return machine{norm: norm, state: stateIdle}
}

// step is what a single line produced.
type step struct {
	record   *catalog.ChannelRecord
	warnings []string
}

func (s *step) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// transition consumes one line and returns the next machine state plus any
// record or warnings the line produced.
func transition(m machine, lineNo int, line string) (machine, step) {
	var out step
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return m, out

	case strings.HasPrefix(line, extinfPrefix):
		if m.state == statePending {
			out.warnings = append(out.warnings, orphanWarning(m.pending.line))
		}
		d, warning, ok := parseExtinf(m.norm, lineNo, line[len(extinfPrefix):])
		if !ok {
			out.warnings = append(out.warnings, warning)
			return machine{norm: m.norm, state: stateIdle}, out
		}
		return machine{norm: m.norm, state: statePending, pending: d}, out

	case strings.HasPrefix(line, extgrpPrefix):
		if m.state == statePending && !m.pending.hasGroup {
			if group := strings.TrimSpace(line[len(extgrpPrefix):]); group != "" {
				m.pending.record.Category = group
				m.pending.hasGroup = true
			}
		}
		return m, out

	case strings.HasPrefix(line, "#"):
		return m, out
	}

	// Anything else is a stream URL.
	if m.state != statePending {
		out.warn("stream URL without channel info at line %d: %s", lineNo, line)
		return m, out
	}

	next := machine{norm: m.norm, state: stateIdle}
	if !catalog.IsValidStreamURL(line) {
		out.warn("invalid stream URL at line %d: %s", lineNo, line)
		return next, out
	}

	record := m.pending.record
	record.StreamURL = line
	record.IsAdult = m.norm.IsAdult(record.Name, record.Category)
	out.record = &record
	return next, out
}

// finish reports what is left when the input ends.
func finish(m machine) []string {
	if m.state == statePending {
		return []string{orphanWarning(m.pending.line)}
	}
	return nil
}

func orphanWarning(line int) string {
	return fmt.Sprintf("channel info at line %d has no stream URL", line)
}

// parseExtinf builds a draft from the text after "#EXTINF:". On failure it
// returns the warning to report instead.
func parseExtinf(norm *normalize.Normalizer, lineNo int, info string) (draft, string, bool) {
	rawAttrs, title, ok := splitExtinf(info)
	if !ok {
		return draft{}, fmt.Sprintf("invalid EXTINF format at line %d", lineNo), false
	}

	attrs := scanAttributes(rawAttrs)
	tvgName := attrs[attrTvgName]

	name := norm.CleanName(title)
	if name == "" {
		name = norm.CleanName(tvgName)
	}
	if name == "" {
		return draft{}, fmt.Sprintf("channel without name at line %d", lineNo), false
	}

	group, hasGroup := attrs[attrGroupTitle]
	hasGroup = hasGroup && group != ""
	category := group
	if !hasGroup {
		category = catalog.DefaultChannelCategory
	}

	return draft{
		line:     lineNo,
		hasGroup: hasGroup,
		record: catalog.ChannelRecord{
			Name:           name,
			Category:       category,
			Logo:           attrs[attrTvgLogo],
			EPGChannelID:   attrs[attrTvgID],
			EPGDisplayName: tvgName,
			Country:        attrs[attrTvgCountry],
			Language:       attrs[attrTvgLanguage],
		},
	}, "", true
}
