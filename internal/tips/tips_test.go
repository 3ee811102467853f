package tips

import (
	"errors"
	"testing"

	"github.com/bilgisen/postgen/internal/models"
)

func TestDefaultCollectionCoversEveryCategory(t *testing.T) {
	c := Default()
	for _, cat := range models.Categories {
		if _, err := c.Pick(cat, 0); err != nil {
			t.Errorf("expected a tip for %s: %v", cat, err)
		}
	}
}

func TestPickRotates(t *testing.T) {
	c, err := Parse([]byte(`
- {topic: one, category: Cloud, content: a}
- {topic: two, category: AI, content: b}
- {topic: three, category: Cloud, content: c}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"one", "three", "one"}
	for used, topic := range want {
		tip, err := c.Pick(models.CategoryCloud, used)
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if tip.Topic != topic {
			t.Errorf("Pick(Cloud, %d) = %s, want %s", used, tip.Topic, topic)
		}
	}

	if _, err := c.Pick(models.CategoryDevOps, 0); !errors.Is(err, ErrNoTips) {
		t.Errorf("expected ErrNoTips, got %v", err)
	}
}

func TestParseValidates(t *testing.T) {
	if _, err := Parse([]byte(`- {topic: x, category: Crypto, content: y}`)); err == nil {
		t.Errorf("expected error for unknown category")
	}
	if _, err := Parse([]byte(`- {topic: "", content: y}`)); err == nil {
		t.Errorf("expected error for missing topic")
	}
	c, err := Parse([]byte(`- {topic: x, content: y}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tip, _ := c.Pick(models.CategoryOther, 0); tip.Topic != "x" {
		t.Errorf("expected missing category to default to Other")
	}
}
