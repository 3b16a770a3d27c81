package xmltv

import (
	"regexp"
	"strconv"
	"time"
)

// timestampRe matches "YYYYMMDDHHMM[SS]" with an optional "±HHMM" offset.
var timestampRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})?\s*(?:([+-])(\d{2})(\d{2}))?$`)

// ParseTime converts an XMLTV timestamp to UTC. The civil time is read in the
// given offset (default +0000), so UTC = civil - offset. Out-of-range calendar
// or clock digits are rejected.
func ParseTime(s string) (time.Time, bool) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}

	civil := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if civil.Year() != year || int(civil.Month()) != month || civil.Day() != day ||
		civil.Hour() != hour || civil.Minute() != minute || civil.Second() != second {
		return time.Time{}, false
	}

	if m[7] == "" {
		return civil, true
	}

	offHours, _ := strconv.Atoi(m[8])
	offMinutes, _ := strconv.Atoi(m[9])
	if offMinutes >= 60 {
		return time.Time{}, false
	}
	offset := time.Duration(offHours)*time.Hour + time.Duration(offMinutes)*time.Minute
	if m[7] == "-" {
		offset = -offset
	}
	return civil.Add(-offset), true
}
