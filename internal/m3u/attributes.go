package m3u

import "strings"

// attrKey identifies an attribute the parser understands. Keys missing from
// knownAttrs are dropped by the tokenizer and never reach the parser.
type attrKey int

const (
	attrTvgID attrKey = iota + 1
	attrTvgName
	attrTvgLogo
	attrGroupTitle
	attrTvgCountry
	attrTvgLanguage
	attrGuideURL
)

var knownAttrs = map[string]attrKey{
	"tvg-id":       attrTvgID,
	"tvg-name":     attrTvgName,
	"tvg-logo":     attrTvgLogo,
	"group-title":  attrGroupTitle,
	"tvg-country":  attrTvgCountry,
	"tvg-language": attrTvgLanguage,
	"url-tvg":      attrGuideURL,
	"x-tvg-url":    attrGuideURL,
}

// attributes maps recognized keys to their trimmed values.
type attributes map[attrKey]string

// scanAttributes tokenizes key=value pairs. Values may be double-quoted,
// single-quoted or bare; keys are case-insensitive. Tokens without "=" (such
// as the EXTINF duration) are skipped. A repeated key keeps its last value.
func scanAttributes(s string) attributes {
	attrs := make(attributes)
	i := 0
	for i < len(s) {
		if isSpace(s[i]) {
			i++
			continue
		}

		start := i
		for i < len(s) && isKeyByte(s[i]) {
			i++
		}
		key := strings.ToLower(s[start:i])

		if key == "" || i >= len(s) || s[i] != '=' {
			// Not an attribute: skip to the next whitespace.
			for i < len(s) && !isSpace(s[i]) {
				i++
			}
			continue
		}
		i++ // '='

		var value string
		value, i = scanValue(s, i)

		if k, ok := knownAttrs[key]; ok {
			attrs[k] = strings.TrimSpace(value)
		}
	}
	return attrs
}

// scanValue reads a value starting at i and returns it with the index just
// past it. An unterminated quote runs to the end of s.
func scanValue(s string, i int) (string, int) {
	if i >= len(s) {
		return "", i
	}
	if q := s[i]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[i+1:], q)
		if end < 0 {
			return s[i+1:], len(s)
		}
		return s[i+1 : i+1+end], i + 1 + end + 1
	}
	start := i
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	return s[start:i], i
}

// splitExtinf splits the text after "#EXTINF:" at the first comma that is not
// inside a quoted attribute value. ok is false when there is no such comma.
func splitExtinf(info string) (attrs, title string, ok bool) {
	var quote byte
	for i := 0; i < len(info); i++ {
		c := info[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && i > 0 && info[i-1] == '=':
			quote = c
		case c == ',':
			return info[:i], info[i+1:], true
		}
	}
	return "", "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}
