package xtream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString accepts a JSON string, number or boolean. Null, objects and
// arrays leave it unset. Panels disagree on which fields are quoted.
type flexString struct {
	Value string
	Valid bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Value, f.Valid = s, true
	case 'n', '{', '[':
		// null, object or array: treated as absent
	default:
		f.Value, f.Valid = string(data), true
	}
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(f.Value)
}

// Int returns the value as an integer, accepting "90" and "90.0".
func (f flexString) Int() (int, bool) {
	s := f.String()
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v), true
	}
	return 0, false
}

// Float returns the value as a float, or 0 when it is not numeric.
func (f flexString) Float() float64 {
	v, err := strconv.ParseFloat(f.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// present reports whether the key was set to a non-empty value.
func (f flexString) present() bool {
	return f.Valid && f.String() != ""
}

// flexObject decodes into T when the JSON value is an object and stays empty
// otherwise. Some panels send [] where an object is expected.
type flexObject[T any] struct {
	Value T
}

func (f *flexObject[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

type authResponseJSON struct {
	UserInfo *userInfoJSON `json:"user_info"`
}

type userInfoJSON struct {
	Auth           flexString `json:"auth"`
	Status         flexString `json:"status"`
	ExpDate        flexString `json:"exp_date"`
	MaxConnections flexString `json:"max_connections"`
}

type liveStreamJSON struct {
	StreamID     flexString `json:"stream_id"`
	Name         flexString `json:"name"`
	CategoryName flexString `json:"category_name"`
	StreamIcon   flexString `json:"stream_icon"`
	EPGChannelID flexString `json:"epg_channel_id"`
}

type vodStreamJSON struct {
	StreamID           flexString              `json:"stream_id"`
	Name               flexString              `json:"name"`
	CategoryName       flexString              `json:"category_name"`
	StreamIcon         flexString              `json:"stream_icon"`
	Plot               flexString              `json:"plot"`
	Rating             flexString              `json:"rating"`
	ContainerExtension flexString              `json:"container_extension"`
	Info               flexObject[vodInfoJSON] `json:"info"`
}

type vodInfoJSON struct {
	Duration     flexString `json:"duration"`
	DurationSecs flexString `json:"duration_secs"`
	Rating       flexString `json:"rating"`
	Plot         flexString `json:"plot"`
}

type seriesJSON struct {
	SeriesID     flexString `json:"series_id"`
	Name         flexString `json:"name"`
	CategoryName flexString `json:"category_name"`
	Cover        flexString `json:"cover"`
	Plot         flexString `json:"plot"`
	Rating       flexString `json:"rating"`
}
