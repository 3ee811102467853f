package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bilgisen/postgen/internal/models"
)

type frontMatter struct {
	ID         int64      `yaml:"id"`
	Type       string     `yaml:"type"`
	Category   string     `yaml:"category"`
	Status     string     `yaml:"status"`
	Topic      string     `yaml:"topic,omitempty"`
	CreatedAt  time.Time  `yaml:"created_at"`
	PostedAt   *time.Time `yaml:"posted_at,omitempty"`
	Engagement *int       `yaml:"engagement,omitempty"`
	Sources    []string   `yaml:"sources,omitempty"`
}

// Markdown renders a draft as a markdown document with YAML front matter.
// sources are the grounding items, in draft order.
func Markdown(d models.PostDraft, sources []models.ContentItem) ([]byte, error) {
	fm := frontMatter{
		ID:         d.ID,
		Type:       string(d.Type),
		Category:   string(d.Category),
		Status:     string(d.Status),
		Topic:      d.Topic,
		CreatedAt:  d.CreatedAt.UTC(),
		PostedAt:   d.PostedAt,
		Engagement: d.Engagement,
	}
	for _, s := range sources {
		fm.Sources = append(fm.Sources, s.URL)
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(d.Body)
	buf.WriteString("\n")

	if len(sources) > 0 {
		buf.WriteString("\n## Sources\n\n")
		for _, s := range sources {
			fmt.Fprintf(&buf, "- [%s](%s) (%s)\n", s.Title, s.URL, s.Source)
		}
	}
	return buf.Bytes(), nil
}

// Path returns root/YYYY/MM/DD/post_<id>_<type>.md for the draft's creation day
func Path(root string, d models.PostDraft) string {
	created := d.CreatedAt.UTC()
	return filepath.Join(root,
		created.Format("2006"), created.Format("01"), created.Format("02"),
		fmt.Sprintf("post_%d_%s.md", d.ID, d.Type))
}

// WriteFile writes the rendered draft under root and returns the file path
func WriteFile(root string, content []byte, d models.PostDraft) (string, error) {
	path := Path(root, d)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
