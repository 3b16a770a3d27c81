package xtream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/m3u"
	"github.com/alorle/catalog-ingest/internal/normalize"
	"github.com/alorle/catalog-ingest/internal/port/driven"
)

const activeAuth = `{"user_info": {"auth": 1, "status": "Active", "exp_date": "1767225600", "max_connections": "1"}, "server_info": {"url": "xtream.example.com"}}`

var testCreds = Credentials{
	BaseURL:  "http://xtream.example.com:8080/",
	Username: "user",
	Password: "pass",
}

// xtreamFetcher serves canned bodies keyed by the action query parameter.
// The authentication call has an empty action. Unknown actions fail with 500.
func xtreamFetcher(responses map[string]string) *driven.MockFetcher {
	return &driven.MockFetcher{
		FetchFunc: func(ctx context.Context, req driven.FetchRequest) ([]byte, error) {
			u, err := url.Parse(req.URL)
			if err != nil {
				return nil, &driven.FetchError{Kind: driven.FetchNetwork, URL: req.URL, Err: err}
			}
			body, ok := responses[u.Query().Get("action")]
			if !ok {
				return nil, &driven.FetchError{Kind: driven.FetchStatus, URL: req.URL, StatusCode: 500}
			}
			return []byte(body), nil
		},
	}
}

func newTestParser(fetcher driven.Fetcher) *Parser {
	return NewParser(fetcher, normalize.New(normalize.Options{}), Config{})
}

func TestParser_AuthenticationFailure(t *testing.T) {
	tests := []struct {
		name string
		auth *string
	}{
		{"inactive account", ptr(`{"user_info": {"auth": 1, "status": "Expired"}}`)},
		{"disabled account", ptr(`{"user_info": {"auth": 0}}`)},
		{"missing user_info", ptr(`{"server_info": {}}`)},
		{"status case differs", ptr(`{"user_info": {"status": "active"}}`)},
		{"not JSON", ptr(`<html>Login</html>`)},
		{"JSON array", ptr(`[]`)},
		{"fetch failure", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := map[string]string{
				actionLive:   `[]`,
				actionVOD:    `[]`,
				actionSeries: `[]`,
			}
			if tt.auth != nil {
				responses[""] = *tt.auth
			}
			fetcher := xtreamFetcher(responses)

			outcome, err := newTestParser(fetcher).Parse(context.Background(), testCreds)
			if !errors.Is(err, catalog.ErrAuthentication) {
				t.Fatalf("expected ErrAuthentication, got %v", err)
			}
			if fetcher.Calls() != 1 {
				t.Errorf("expected exactly 1 fetch call, got %d", fetcher.Calls())
			}
			if !reflect.DeepEqual(outcome, catalog.Outcome{}) {
				t.Errorf("expected zero outcome, got %+v", outcome)
			}
		})
	}
}

func TestParser_Parse(t *testing.T) {
	fetcher := xtreamFetcher(map[string]string{
		"": activeAuth,
		actionLive: `[
			{"stream_id": 1, "name": "[US] CNN HD", "category_name": "News", "stream_icon": "http://logo.example.com/cnn.png", "epg_channel_id": "cnn.us"},
			{"stream_id": "2", "name": "Hot XXX", "category_name": null},
			{"stream_id": 3},
			"garbage"
		]`,
		actionVOD: `[
			{"stream_id": 101, "name": "Inception (2010)", "category_name": "Sci-Fi", "stream_icon": "http://img.example.com/inception.jpg", "container_extension": "mkv", "rating": "8.8", "info": {"duration": "02:28:00", "plot": "Dreams"}},
			{"stream_id": "102", "name": "[EN] Blade Runner 1982 HD", "info": {"duration_secs": 7020, "rating": 8.1}},
			{"stream_id": 103, "name": null},
			{"name": "No Id"},
			{"stream_id": 104, "name": "Empty Info", "info": []}
		]`,
		actionSeries: `[
			{"series_id": 77, "name": "Breaking Bad (2008)", "cover": "http://img.example.com/bb.jpg", "plot": "Chemistry", "rating": "9.5", "category_name": "Drama"},
			{"series_id": "", "name": "No Id"}
		]`,
	})

	outcome, err := newTestParser(fetcher).Parse(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcome.Warnings) != 0 {
		t.Errorf("expected dropped entries to produce no warnings, got %v", outcome.Warnings)
	}

	wantChannels := []catalog.ChannelRecord{
		{
			Name:           "CNN",
			Category:       "News",
			Logo:           "http://logo.example.com/cnn.png",
			StreamURL:      "http://xtream.example.com:8080/live/user/pass/1.ts",
			EPGChannelID:   "cnn.us",
			EPGDisplayName: "CNN",
		},
		{
			Name:           "Hot XXX",
			Category:       catalog.DefaultChannelCategory,
			StreamURL:      "http://xtream.example.com:8080/live/user/pass/2.ts",
			EPGDisplayName: "Hot XXX",
			IsAdult:        true,
		},
	}
	if !reflect.DeepEqual(outcome.Channels, wantChannels) {
		t.Errorf("expected channels\n%+v\ngot\n%+v", wantChannels, outcome.Channels)
	}

	wantMovies := []catalog.MovieRecord{
		{
			Name:            "Inception (2010)",
			Year:            2010,
			Category:        "Sci-Fi",
			Poster:          "http://img.example.com/inception.jpg",
			Synopsis:        "Dreams",
			DurationMinutes: 148,
			Rating:          8.8,
			StreamURL:       "http://xtream.example.com:8080/movie/user/pass/101.mkv",
			ProviderID:      "101",
		},
		{
			Name:            "Blade Runner 1982",
			Year:            1982,
			Category:        catalog.DefaultMovieCategory,
			DurationMinutes: 117,
			Rating:          8.1,
			StreamURL:       "http://xtream.example.com:8080/movie/user/pass/102.mp4",
			ProviderID:      "102",
		},
		{
			Name:       "Empty Info",
			Category:   catalog.DefaultMovieCategory,
			StreamURL:  "http://xtream.example.com:8080/movie/user/pass/104.mp4",
			ProviderID: "104",
		},
	}
	if !reflect.DeepEqual(outcome.Movies, wantMovies) {
		t.Errorf("expected movies\n%+v\ngot\n%+v", wantMovies, outcome.Movies)
	}

	wantSeries := []catalog.SeriesRecord{{
		Name:     "Breaking Bad (2008)",
		Year:     2008,
		Category: "Drama",
		Cover:    "http://img.example.com/bb.jpg",
		Synopsis: "Chemistry",
		Rating:   9.5,
		SeriesID: "77",
	}}
	if !reflect.DeepEqual(outcome.Series, wantSeries) {
		t.Errorf("expected series\n%+v\ngot\n%+v", wantSeries, outcome.Series)
	}
}

func TestParser_RequestURLs(t *testing.T) {
	fetcher := xtreamFetcher(map[string]string{
		"":           activeAuth,
		actionLive:   `[]`,
		actionVOD:    `[]`,
		actionSeries: `[]`,
	})
	if _, err := newTestParser(fetcher).Parse(context.Background(), testCreds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := fetcher.Requests()
	if len(reqs) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(reqs))
	}

	base := "http://xtream.example.com:8080/player_api.php?"
	if reqs[0].URL != base+"password=pass&username=user" {
		t.Errorf("expected authentication first, got %s", reqs[0].URL)
	}

	// The catalog phases run concurrently; their order is not fixed.
	var got []string
	for _, r := range reqs[1:] {
		got = append(got, r.URL)
		if r.Timeout != DefaultTimeout {
			t.Errorf("expected timeout %v, got %v", DefaultTimeout, r.Timeout)
		}
	}
	sort.Strings(got)
	want := []string{
		base + "action=get_live_streams&password=pass&username=user",
		base + "action=get_series&password=pass&username=user",
		base + "action=get_vod_streams&password=pass&username=user",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParser_PhaseFailures(t *testing.T) {
	fetcher := xtreamFetcher(map[string]string{
		"":           activeAuth,
		actionLive:   `[{"stream_id": 1, "name": "CNN"}]`,
		actionSeries: `{"error": "not allowed"}`,
	})

	outcome, err := newTestParser(fetcher).Parse(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcome.Channels) != 1 {
		t.Errorf("expected live channels to survive, got %d", len(outcome.Channels))
	}
	if len(outcome.Movies) != 0 || len(outcome.Series) != 0 {
		t.Errorf("expected no movies or series, got %d/%d", len(outcome.Movies), len(outcome.Series))
	}

	if len(outcome.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", outcome.Warnings)
	}
	if outcome.Warnings[0] != "failed to fetch VOD movies: unexpected HTTP status 500" {
		t.Errorf("unexpected VOD warning %q", outcome.Warnings[0])
	}
	if !strings.HasPrefix(outcome.Warnings[1], "failed to fetch series: invalid response") {
		t.Errorf("unexpected series warning %q", outcome.Warnings[1])
	}
}

func TestParser_NullPhaseResponse(t *testing.T) {
	fetcher := xtreamFetcher(map[string]string{
		"":           activeAuth,
		actionLive:   `null`,
		actionVOD:    `[]`,
		actionSeries: `[]`,
	})

	outcome, err := newTestParser(fetcher).Parse(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"failed to fetch live channels: response is not a list"}
	if !reflect.DeepEqual(outcome.Warnings, want) {
		t.Errorf("expected %v, got %v", want, outcome.Warnings)
	}
}

func TestParser_CancelledAfterAuthentication(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &driven.MockFetcher{
		FetchFunc: func(_ context.Context, req driven.FetchRequest) ([]byte, error) {
			cancel()
			return []byte(activeAuth), nil
		},
	}

	_, err := newTestParser(fetcher).Parse(ctx, testCreds)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fetcher.Calls() != 1 {
		t.Errorf("expected no catalog requests after cancellation, got %d calls", fetcher.Calls())
	}
}

func TestCredentialsURLs(t *testing.T) {
	creds := Credentials{BaseURL: " https://xtream.example.com// ", Username: "john doe", Password: "p@ss/word"}

	if got, want := creds.LiveURL("7"), "https://xtream.example.com/live/john%20doe/p@ss%2Fword/7.ts"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := creds.MovieURL("8", ".avi"), "https://xtream.example.com/movie/john%20doe/p@ss%2Fword/8.avi"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := creds.MovieURL("8", ""), "https://xtream.example.com/movie/john%20doe/p@ss%2Fword/8.mp4"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := GuideURL(creds), "https://xtream.example.com/xmltv.php?password=p%40ss%2Fword&username=john+doe"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if !catalog.IsValidStreamURL(creds.LiveURL("7")) {
		t.Error("expected escaped live URL to be a valid stream URL")
	}
}

func ptr(s string) *string { return &s }

func TestParser_AdultClassificationMatchesPlaylist(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		category string
		adult    bool
	}{
		{"tag removed by cleanup", "[XXX] Night Show", "Shows", false},
		{"keyword in cleaned name", "Hot XXX Nights", "Shows", true},
		{"keyword in category", "Night Show", "Adult", true},
		{"plain channel", "[US] CNN HD", "News", false},
	}

	norm := normalize.New(normalize.Options{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			playlist := fmt.Sprintf("#EXTM3U\n#EXTINF:-1 group-title=%q,%s\nhttp://stream.example.com/1.ts\n", tt.category, tt.title)
			fromPlaylist, err := m3u.NewParser(nil, norm, m3u.Config{}).ParsePlaylist([]byte(playlist))
			if err != nil {
				t.Fatalf("unexpected playlist error: %v", err)
			}
			if len(fromPlaylist.Channels) != 1 {
				t.Fatalf("expected 1 playlist channel, got %d", len(fromPlaylist.Channels))
			}

			live, err := json.Marshal([]map[string]any{{"stream_id": 1, "name": tt.title, "category_name": tt.category}})
			if err != nil {
				t.Fatalf("marshal live streams: %v", err)
			}
			fetcher := xtreamFetcher(map[string]string{
				"":           activeAuth,
				actionLive:   string(live),
				actionVOD:    `[]`,
				actionSeries: `[]`,
			})
			fromXtream, err := NewParser(fetcher, norm, Config{}).Parse(context.Background(), testCreds)
			if err != nil {
				t.Fatalf("unexpected xtream error: %v", err)
			}
			if len(fromXtream.Channels) != 1 {
				t.Fatalf("expected 1 xtream channel, got %d", len(fromXtream.Channels))
			}

			p, x := fromPlaylist.Channels[0], fromXtream.Channels[0]
			if p.Name != x.Name {
				t.Errorf("names differ: playlist %q, xtream %q", p.Name, x.Name)
			}
			if p.IsAdult != tt.adult {
				t.Errorf("playlist: expected adult %v, got %v", tt.adult, p.IsAdult)
			}
			if x.IsAdult != tt.adult {
				t.Errorf("xtream: expected adult %v, got %v", tt.adult, x.IsAdult)
			}
		})
	}
}
