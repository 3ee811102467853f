package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSourcePriority(t *testing.T) {
	if !(SourceArXiv.Priority() < SourceHackerNews.Priority() &&
		SourceHackerNews.Priority() < SourceDevTo.Priority() &&
		SourceDevTo.Priority() < SourceReddit.Priority()) {
		t.Fatalf("unexpected priority order")
	}
	if Source("mastodon").Valid() {
		t.Errorf("expected unknown source to be invalid")
	}
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"ai", CategoryAI, true},
		{"DevOps", CategoryDevOps, true},
		{"data-science", CategoryDataScience, true},
		{"Data Science", CategoryDataScience, true},
		{"crypto", "", false},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if tt.ok && err != nil {
			t.Errorf("ParseCategory(%q) unexpected error: %v", tt.in, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseCategory(%q) expected error", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if s, err := ParseSource("Dev.to"); err != nil || s != SourceDevTo {
		t.Errorf("ParseSource(Dev.to) = %q, %v", s, err)
	}
	if _, err := ParsePostType("story"); err == nil {
		t.Errorf("expected error for unknown post type")
	}
	if st, err := ParseDraftStatus("POSTED"); err != nil || st != StatusPosted {
		t.Errorf("ParseDraftStatus(POSTED) = %q, %v", st, err)
	}
}

func TestPostDraftJSONOmitsUnsetPostingFields(t *testing.T) {
	draft := PostDraft{
		ID:        7,
		Type:      PostTypeNews,
		Category:  CategoryAI,
		Body:      "body",
		Status:    StatusDraft,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(draft)
	if err != nil {
		t.Fatalf("Failed to marshal PostDraft: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if _, ok := result["posted_at"]; ok {
		t.Errorf("Expected posted_at to be omitted for a draft, got %v", result["posted_at"])
	}
	if _, ok := result["engagement"]; ok {
		t.Errorf("Expected engagement to be omitted for a draft, got %v", result["engagement"])
	}
	if result["status"] != "draft" {
		t.Errorf("Expected status 'draft', got %v", result["status"])
	}
}
