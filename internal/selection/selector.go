package selection

import (
	"errors"

	"github.com/bilgisen/postgen/internal/models"
)

// ErrNoEligibleContent means no ranked item matched the request. It is an
// expected empty result, typically handled by widening the window.
var ErrNoEligibleContent = errors.New("no eligible content")

// Request describes what the next post needs
type Request struct {
	Type models.PostType
	// Category filters news candidates; empty accepts any category.
	Category models.Category
	// Used holds content ids already referenced by any draft.
	Used map[int64]struct{}
}

// Select returns the grounding item for the next post. Tip posts never take
// grounding and yield (nil, nil).
func Select(ranked []models.RankedContent, req Request) (*models.ContentItem, error) {
	if req.Type == models.PostTypeTip {
		return nil, nil
	}

	for _, rc := range ranked {
		item := rc.Item
		if item.Suppressed {
			continue
		}
		if req.Category != "" && item.Category != req.Category {
			continue
		}
		if _, used := req.Used[item.ID]; used {
			continue
		}
		return &item, nil
	}
	return nil, ErrNoEligibleContent
}
