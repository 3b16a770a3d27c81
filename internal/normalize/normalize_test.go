package normalize

import (
	"testing"
	"time"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"[US] CNN HD", "CNN"},
		{"1. Fox News 4K", "Fox News"},
		{"BBC One FHD", "BBC One"},
		{"Sky Sports [HD]", "Sky Sports"},
		{"[UK] Sky News [FHD]", "Sky News"},
		{"12. ESPN", "ESPN"},
		{"  Discovery  ", "Discovery"},
		{"National Geographic uhd", "National Geographic"},
		{"CNN HD HD", "CNN"},
		{"[A] [B] Eurosport", "Eurosport"},
		{"1. 2. Arte", "Arte"},
		{"3.14 Pi Channel", "3.14 Pi Channel"},
		{"ARCHD", "ARCHD"},
		{"Movies 24", "Movies 24"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := CleanName(tt.raw); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanName_Idempotent(t *testing.T) {
	inputs := []string{
		"[US] CNN HD",
		"1. Fox News 4K",
		"[A] [B] 1. 2. Channel [HD] FHD",
		"12. [DE] Das Erste HD",
		"[XXX] Hot Movies 4K",
		"Inception (2010) [Multi-Sub]",
		"  spaced   out  HD ",
		"Café TV",
	}

	for _, in := range inputs {
		once := CleanName(in)
		twice := CleanName(once)
		if once != twice {
			t.Errorf("CleanName not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizer_IsAdult(t *testing.T) {
	n := New(Options{})

	tests := []struct {
		name     string
		category string
		want     bool
	}{
		{"Hot Channel", "XXX", true},
		{"PLAYBOY TV", "Entertainment", true},
		{"Midnight", "Adults Only", true},
		{"Late Show 18+", "General", true},
		{"Sexto Sentido", "Movies", true},
		{"CNN", "News", false},
		{"Discovery", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.IsAdult(tt.name, tt.category); got != tt.want {
				t.Errorf("IsAdult(%q, %q) = %v, want %v", tt.name, tt.category, got, tt.want)
			}
		})
	}
}

func TestNormalizer_IsAdult_InjectedKeywords(t *testing.T) {
	n := New(Options{AdultKeywords: []string{"Nachtprogramm", " "}})

	if !n.IsAdult("ZDF NACHTPROGRAMM", "") {
		t.Error("expected injected keyword to match case-insensitively")
	}
	if n.IsAdult("Playboy TV", "") {
		t.Error("expected default keywords to be replaced")
	}
}

func TestNormalizer_ExtractYear(t *testing.T) {
	n := New(Options{Now: fixedClock(2026)})

	tests := []struct {
		name     string
		want     int
		wantSome bool
	}{
		{"Inception (2010)", 2010, true},
		{"Show 2025 Special", 2025, true},
		{"No Year Here", 0, false},
		{"Blade Runner 2049", 0, false},
		{"Blade Runner 2049 (2017)", 2017, true},
		{"Future (2028)", 2028, true},
		{"Too Far (2029)", 0, false},
		{"Space 1999 (1875)", 1999, true},
		{"Channel 12345", 0, false},
		{"1917", 1917, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ExtractYear(tt.name)
			if ok != tt.wantSome || got != tt.want {
				t.Errorf("ExtractYear(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantSome)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		value    string
		want     int
		wantSome bool
	}{
		{"1h 30m", 90, true},
		{"90 min", 90, true},
		{"n/a", 0, false},
		{"120", 120, true},
		{"2h", 120, true},
		{"1h30m", 90, true},
		{"45 minutes", 45, true},
		{"01:49:12", 109, true},
		{"1:05", 65, true},
		{"PT1H30M", 90, true},
		{"pt45m", 45, true},
		{"", 0, false},
		{"-5", 0, false},
		{"about an hour", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseDuration(tt.value)
			if ok != tt.wantSome || got != tt.want {
				t.Errorf("ParseDuration(%q) = (%d, %v), want (%d, %v)", tt.value, got, ok, tt.want, tt.wantSome)
			}
		})
	}
}
