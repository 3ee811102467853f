package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/bilgisen/postgen/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_relevance.yaml
var defaultRelevanceYAML []byte

// CategoryProfile is the relevance configuration of one category
type CategoryProfile struct {
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// RelevanceProfile maps categories to a fixed weight and a keyword list.
// Baseline is the floor every scored item receives; Saturation is the number
// of keyword hits that earns the full keyword component.
type RelevanceProfile struct {
	Baseline   float64                             `yaml:"baseline"`
	Saturation int                                 `yaml:"saturation"`
	Categories map[models.Category]CategoryProfile `yaml:"categories"`
}

// LoadRelevanceProfile reads the profile at path, or the embedded default when
// path is empty.
func LoadRelevanceProfile(path string) (RelevanceProfile, error) {
	data := defaultRelevanceYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return RelevanceProfile{}, fmt.Errorf("reading relevance profile: %w", err)
		}
	}
	return ParseRelevanceProfile(data)
}

// ParseRelevanceProfile decodes and normalizes a YAML profile
func ParseRelevanceProfile(data []byte) (RelevanceProfile, error) {
	var p RelevanceProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return RelevanceProfile{}, fmt.Errorf("parsing relevance profile: %w", err)
	}
	if p.Saturation <= 0 {
		p.Saturation = 3
	}
	for cat, cp := range p.Categories {
		kws := make([]string, 0, len(cp.Keywords))
		for _, kw := range cp.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		cp.Keywords = kws
		p.Categories[cat] = cp
	}
	if err := p.Validate(); err != nil {
		return RelevanceProfile{}, err
	}
	return p, nil
}

// DefaultRelevanceProfile returns the embedded profile
func DefaultRelevanceProfile() RelevanceProfile {
	p, err := ParseRelevanceProfile(defaultRelevanceYAML)
	if err != nil {
		panic(err)
	}
	return p
}

func (p RelevanceProfile) Validate() error {
	if p.Baseline <= 0 || p.Baseline >= 1 {
		return fmt.Errorf("relevance baseline must be in (0,1), got %v", p.Baseline)
	}
	for cat, cp := range p.Categories {
		if !cat.Valid() {
			return fmt.Errorf("relevance profile: unknown category %q", cat)
		}
		if cp.Weight < 0 || cp.Weight > 1 {
			return fmt.Errorf("relevance profile: weight for %s must be in [0,1], got %v", cat, cp.Weight)
		}
	}
	return nil
}

// Weight returns the configured weight of a category, 0 when absent
func (p RelevanceProfile) Weight(c models.Category) float64 {
	return p.Categories[c].Weight
}

// Keywords returns the lowercase keyword list of a category
func (p RelevanceProfile) Keywords(c models.Category) []string {
	return p.Categories[c].Keywords
}
