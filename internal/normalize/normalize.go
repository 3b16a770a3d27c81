// Package normalize holds the heuristics every feed parser shares, so a
// channel is named and classified the same way whether it came from an M3U
// playlist or an Xtream API.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultAdultKeywords is the keyword list used when Options.AdultKeywords is empty.
var DefaultAdultKeywords = []string{
	"xxx",
	"adult",
	"porn",
	"sex",
	"erotic",
	"playboy",
	"penthouse",
	"18+",
}

const (
	minYear         = 1900
	futureYearSlack = 2
)

var (
	leadingTagRegex  = regexp.MustCompile(`^\[[^\]]*\]\s*`)
	trailingTagRegex = regexp.MustCompile(`\s*\[[^\]]*\]$`)
	ordinalRegex     = regexp.MustCompile(`^\d+\.\s*([^\d]|$)`)
	qualityRegex     = regexp.MustCompile(`(?i)(?:^|\s+)(?:FHD|UHD|HD|4K)$`)

	parenYearRegex = regexp.MustCompile(`\((\d{4})\)`)
	digitRunRegex  = regexp.MustCompile(`[0-9]+`)
)

// Options configures a Normalizer.
type Options struct {
	// AdultKeywords replaces DefaultAdultKeywords when non-empty.
	AdultKeywords []string

	// Now supplies the current time for year plausibility checks.
	// Defaults to time.Now.
	Now func() time.Time
}

// Normalizer applies name cleanup and content classification.
// It is immutable after New and safe for concurrent use.
type Normalizer struct {
	keywords []string
	now      func() time.Time
}

// New creates a Normalizer from opts.
func New(opts Options) *Normalizer {
	keywords := opts.AdultKeywords
	if len(keywords) == 0 {
		keywords = DefaultAdultKeywords
	}

	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		folded = append(folded, fold(k))
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Normalizer{keywords: folded, now: now}
}

// CleanName strips decoration that providers put around channel and title
// names: a leading [TAG], a trailing [TAG], an ordinal prefix such as "12. "
// and a trailing quality marker (HD, FHD, UHD, 4K). Passes repeat until the
// name is stable, so CleanName(CleanName(x)) == CleanName(x).
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	for {
		next := cleanPass(norm.NFC.String(name))
		if next == name {
			return name
		}
		name = next
	}
}

// cleanPass runs each rule once, in order. Brackets go first so a bracketed
// quality tag cannot survive the suffix rule.
func cleanPass(name string) string {
	name = leadingTagRegex.ReplaceAllString(name, "")
	name = trailingTagRegex.ReplaceAllString(name, "")
	name = ordinalRegex.ReplaceAllString(name, "${1}")
	name = qualityRegex.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// CleanName is a convenience wrapper around the package function.
func (n *Normalizer) CleanName(raw string) string {
	return CleanName(raw)
}

// IsAdult reports whether name or category contains one of the configured
// keywords, ignoring case. It is a coarse filter: "Sexto Sentido" matches.
func (n *Normalizer) IsAdult(name, category string) bool {
	text := fold(name + " " + category)
	for _, k := range n.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// ExtractYear finds a release year in a title. A parenthesized "(YYYY)" wins;
// otherwise the first standalone four-digit number is used. Only years in
// [1900, current year + 2] count.
func (n *Normalizer) ExtractYear(name string) (int, bool) {
	maxYear := n.now().Year() + futureYearSlack

	for _, m := range parenYearRegex.FindAllStringSubmatch(name, -1) {
		if year, ok := plausibleYear(m[1], maxYear); ok {
			return year, true
		}
	}

	for _, run := range digitRunRegex.FindAllString(name, -1) {
		if len(run) != 4 {
			continue
		}
		if year, ok := plausibleYear(run, maxYear); ok {
			return year, true
		}
	}

	return 0, false
}

// ParseDuration is a convenience wrapper around the package function.
func (n *Normalizer) ParseDuration(value string) (int, bool) {
	return ParseDuration(value)
}

func plausibleYear(digits string, maxYear int) (int, bool) {
	year := 0
	for _, c := range digits {
		year = year*10 + int(c-'0')
	}
	if year < minYear || year > maxYear {
		return 0, false
	}
	return year, true
}

// fold returns a caseless form of s for substring matching.
// A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
