package utils

import "testing"

func TestCleanFilename(t *testing.T) {
	cases := map[string]string{
		"surf_trip-day_2.mp4": "surf trip day 2",
		"clip.mov":            "clip",
		"Already Nice.mp4":    "Already Nice",
	}
	for in, want := range cases {
		if got := CleanFilename(in); got != want {
			t.Errorf("CleanFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("Café au lait!", "x"); got != "Caf_au_lait" {
		t.Errorf("Sanitize = %q", got)
	}
	if got := Sanitize("", "fallback"); got != "fallback" {
		t.Errorf("empty input should yield fallback, got %q", got)
	}
	if got := Sanitize("???", "fallback"); got != "fallback" {
		t.Errorf("symbols-only input should yield fallback, got %q", got)
	}
}
