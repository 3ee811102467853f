package tips

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/bilgisen/postgen/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed tips.yaml
var defaultTipsYAML []byte

// ErrNoTips is returned when no tip matches the requested category
var ErrNoTips = errors.New("no tips available for category")

// Collection is the static tips library
type Collection struct {
	tips []models.Tip
}

// Default returns the embedded collection
func Default() *Collection {
	c, err := Parse(defaultTipsYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML list of tips
func Parse(data []byte) (*Collection, error) {
	var list []models.Tip
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing tips: %w", err)
	}
	for i, tip := range list {
		if tip.Topic == "" || tip.Content == "" {
			return nil, fmt.Errorf("tip %d: topic and content are required", i)
		}
		if tip.Category == "" {
			list[i].Category = models.CategoryOther
		} else if !tip.Category.Valid() {
			return nil, fmt.Errorf("tip %d: unknown category %q", i, tip.Category)
		}
	}
	return &Collection{tips: list}, nil
}

// Pick returns the tip for the next post in category. used is the number of
// tip drafts already created for that category, which rotates through the
// matching tips in order. An empty category draws from all tips.
func (c *Collection) Pick(category models.Category, used int) (models.Tip, error) {
	var matching []models.Tip
	for _, tip := range c.tips {
		if category == "" || tip.Category == category {
			matching = append(matching, tip)
		}
	}
	if len(matching) == 0 {
		return models.Tip{}, fmt.Errorf("%w: %s", ErrNoTips, category)
	}
	if used < 0 {
		used = 0
	}
	return matching[used%len(matching)], nil
}
