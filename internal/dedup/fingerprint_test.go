package dedup

import (
	"testing"
	"time"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  OpenAI Releases GPT-5!  ", "openai releases gpt 5"},
		{"Kubernetes 1.31:   what's new", "kubernetes 1 31 what s new"},
		{"   ", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)

	a := Fingerprint("Rust 2.0 announced", morning)
	b := Fingerprint("rust 2.0 Announced!", evening)
	if a != b {
		t.Errorf("expected same-day cosmetic variants to collide")
	}
	if a == Fingerprint("Rust 2.0 announced", nextDay) {
		t.Errorf("expected different days to produce different fingerprints")
	}
	if a == Fingerprint("Go 2.0 announced", morning) {
		t.Errorf("expected different stories to produce different fingerprints")
	}
	if Fingerprint(" \t ", morning) != "" {
		t.Errorf("expected empty fingerprint for blank title")
	}
}
