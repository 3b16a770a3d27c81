package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sosodev/duration"
)

var (
	minutesOnlyRegex  = regexp.MustCompile(`^\d+$`)
	hoursMinutesRegex = regexp.MustCompile(`(?i)^(\d+)\s*h(?:ours?|rs?)?(?:\s*(\d+)\s*(?:m|mins?|minutes?)?)?$`)
	minutesRegex      = regexp.MustCompile(`(?i)^(\d+)\s*(?:m|mins?|minutes?)\.?$`)
	clockRegex        = regexp.MustCompile(`^(\d{1,3}):([0-5]\d)(?::([0-5]\d))?$`)
)

// ParseDuration converts a provider duration string to whole minutes.
// Accepted forms: "90" (minutes), "1h 30m", "90 min", "01:30:00" and ISO-8601
// "PT1H30M". Anything else reports false rather than an error.
func ParseDuration(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if minutesOnlyRegex.MatchString(value) {
		return atoi(value)
	}

	if m := hoursMinutesRegex.FindStringSubmatch(value); m != nil {
		hours, ok := atoi(m[1])
		if !ok {
			return 0, false
		}
		minutes := 0
		if m[2] != "" {
			if minutes, ok = atoi(m[2]); !ok {
				return 0, false
			}
		}
		return hours*60 + minutes, true
	}

	if m := minutesRegex.FindStringSubmatch(value); m != nil {
		return atoi(m[1])
	}

	if m := clockRegex.FindStringSubmatch(value); m != nil {
		hours, ok := atoi(m[1])
		if !ok {
			return 0, false
		}
		minutes, ok := atoi(m[2])
		if !ok {
			return 0, false
		}
		return hours*60 + minutes, true
	}

	if strings.HasPrefix(strings.ToUpper(value), "P") {
		d, err := duration.Parse(strings.ToUpper(value))
		if err != nil {
			return 0, false
		}
		return int(d.ToTimeDuration().Minutes()), true
	}

	return 0, false
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
