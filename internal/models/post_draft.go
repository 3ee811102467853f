package models

import (
	"fmt"
	"strings"
	"time"
)

// PostType is the kind of generated post
type PostType string

const (
	PostTypeNews PostType = "news"
	PostTypeTip  PostType = "tip"
)

func ParsePostType(s string) (PostType, error) {
	switch PostType(strings.ToLower(strings.TrimSpace(s))) {
	case PostTypeNews:
		return PostTypeNews, nil
	case PostTypeTip:
		return PostTypeTip, nil
	}
	return "", fmt.Errorf("unknown post type %q", s)
}

// DraftStatus is the lifecycle state of a PostDraft. The only transition is
// draft -> posted.
type DraftStatus string

const (
	StatusDraft  DraftStatus = "draft"
	StatusPosted DraftStatus = "posted"
)

func ParseDraftStatus(s string) (DraftStatus, error) {
	switch DraftStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPosted:
		return StatusPosted, nil
	}
	return "", fmt.Errorf("unknown draft status %q", s)
}

// PostDraft is a generated LinkedIn-style post
type PostDraft struct {
	ID               int64       `json:"id"`
	Type             PostType    `json:"type"`
	Category         Category    `json:"category"`
	Body             string      `json:"body"`
	SourceContentIDs []int64     `json:"source_content_ids"`
	Status           DraftStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	PostedAt         *time.Time  `json:"posted_at,omitempty"`
	Engagement       *int        `json:"engagement,omitempty"`
	// Topic is the tip topic for tip posts, empty for news.
	Topic string `json:"topic,omitempty"`
}

// IsPosted reports whether the draft reached its terminal state
func (d *PostDraft) IsPosted() bool {
	return d.Status == StatusPosted
}
