package utils

import "testing"

func TestHashIsStable(t *testing.T) {
	if Hash("abc") != Hash("abc") {
		t.Fatalf("expected identical hashes for identical input")
	}
	if got := len(Hash("abc")); got != 64 {
		t.Errorf("expected 64 hex chars, got %d", got)
	}
}

func TestHashPartsSeparatesFields(t *testing.T) {
	if HashParts("a b", "c") == HashParts("a", "b c") {
		t.Errorf("expected different hashes for different part boundaries")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 8, "abcde..."},
		{"héllo wörld", 6, "hél..."},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
