package rewriter

import (
	"reflect"
	"testing"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

func TestDeduplicateChannels(t *testing.T) {
	tests := []struct {
		name  string
		input []catalog.ChannelRecord
		want  []string
	}{
		{
			name:  "empty list",
			input: nil,
			want:  nil,
		},
		{
			name: "no duplicates",
			input: []catalog.ChannelRecord{
				{Name: "A", StreamURL: "http://x/1"},
				{Name: "B", StreamURL: "http://x/2"},
			},
			want: []string{"A", "B"},
		},
		{
			name: "first occurrence wins",
			input: []catalog.ChannelRecord{
				{Name: "A", StreamURL: "http://x/1"},
				{Name: "B", StreamURL: "http://x/2"},
				{Name: "A again", StreamURL: "http://x/1"},
			},
			want: []string{"A", "B"},
		},
		{
			name: "surrounding whitespace is ignored",
			input: []catalog.ChannelRecord{
				{Name: "A", StreamURL: "http://x/1"},
				{Name: "A spaced", StreamURL: " http://x/1 "},
			},
			want: []string{"A"},
		},
		{
			name: "channels without URL are kept",
			input: []catalog.ChannelRecord{
				{Name: "A"},
				{Name: "B"},
			},
			want: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, ch := range DeduplicateChannels(tt.input) {
				got = append(got, ch.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeduplicateChannels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectGuideIDs(t *testing.T) {
	channels := []catalog.ChannelRecord{
		{Name: "A", EPGChannelID: "cnn.us"},
		{Name: "B"},
		{Name: "C", EPGChannelID: "bbc.uk"},
		{Name: "D", EPGChannelID: "cnn.us"},
	}

	got := CollectGuideIDs(channels)
	want := []string{"cnn.us", "bbc.uk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectGuideIDs() = %v, want %v", got, want)
	}
}
