package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/postgen/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("WINDOW", "3d")
	t.Setenv("DEVTO_TAGS", "go, kubernetes ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window != 72*time.Hour {
		t.Errorf("expected 72h window, got %v", cfg.Window)
	}
	if len(cfg.DevToTags) != 2 || cfg.DevToTags[1] != "kubernetes" {
		t.Errorf("unexpected devto tags: %v", cfg.DevToTags)
	}
	if cfg.AIModel != "gemini-2.0-flash" {
		t.Errorf("unexpected default model %q", cfg.AIModel)
	}
	if cfg.Relevance.Weight(models.CategoryAI) != 1.0 {
		t.Errorf("expected embedded relevance profile to be loaded")
	}
}

func TestValidateRejectsPartialArchiveConfig(t *testing.T) {
	t.Setenv("R2_BUCKET", "drafts")
	t.Setenv("R2_ACCESS_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when bucket is set without credentials")
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 168 * time.Hour, false},
		{"36h", 36 * time.Hour, false},
		{"0d", 0, true},
		{"-1h", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWindow(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRelevanceProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	data := []byte(`
baseline: 0.05
categories:
  DevOps:
    weight: 1
    keywords: ["  Terraform ", "GitOps"]
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	p, err := LoadRelevanceProfile(path)
	if err != nil {
		t.Fatalf("LoadRelevanceProfile: %v", err)
	}
	if p.Saturation != 3 {
		t.Errorf("expected default saturation 3, got %d", p.Saturation)
	}
	kws := p.Keywords(models.CategoryDevOps)
	if len(kws) != 2 || kws[0] != "terraform" || kws[1] != "gitops" {
		t.Errorf("keywords not normalized: %v", kws)
	}
	if p.Weight(models.CategoryAI) != 0 {
		t.Errorf("expected missing category weight 0")
	}
}

func TestRelevanceProfileRejectsZeroBaseline(t *testing.T) {
	if _, err := ParseRelevanceProfile([]byte("baseline: 0\n")); err == nil {
		t.Fatalf("expected error for zero baseline")
	}
	if _, err := ParseRelevanceProfile([]byte("baseline: 0.1\ncategories:\n  Crypto:\n    weight: 1\n")); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}
