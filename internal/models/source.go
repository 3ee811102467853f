package models

import (
	"fmt"
	"strings"
)

// Source identifies the feed a content item was fetched from
type Source string

const (
	SourceArXiv      Source = "arxiv"
	SourceHackerNews Source = "hackernews"
	SourceDevTo      Source = "devto"
	SourceReddit     Source = "reddit"
)

// Sources lists every known source in tie-break priority order
var Sources = []Source{SourceArXiv, SourceHackerNews, SourceDevTo, SourceReddit}

// Priority returns the tie-break rank of the source, lower wins.
func (s Source) Priority() int {
	for i, src := range Sources {
		if src == s {
			return i
		}
	}
	return len(Sources)
}

func (s Source) Valid() bool {
	return s.Priority() < len(Sources)
}

// ParseSource accepts the canonical names plus a few common spellings
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arxiv":
		return SourceArXiv, nil
	case "hackernews", "hacker_news", "hn":
		return SourceHackerNews, nil
	case "devto", "dev.to", "dev_to":
		return SourceDevTo, nil
	case "reddit":
		return SourceReddit, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Category is the topical bucket of a content item or post
type Category string

const (
	CategoryAI          Category = "AI"
	CategoryDevOps      Category = "DevOps"
	CategoryCloud       Category = "Cloud"
	CategoryDataScience Category = "DataScience"
	CategoryOther       Category = "Other"
)

// Categories is the classification order; earlier entries win ties.
var Categories = []Category{CategoryAI, CategoryDevOps, CategoryCloud, CategoryDataScience, CategoryOther}

func (c Category) Valid() bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// ParseCategory matches case-insensitively and tolerates separators ("data-science").
func ParseCategory(s string) (Category, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, cat := range Categories {
		if strings.ToLower(string(cat)) == key {
			return cat, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
