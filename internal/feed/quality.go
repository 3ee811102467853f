package feed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bilgisen/postgen/internal/models"
)

// ErrRejected is wrapped by every quality filter rejection
var ErrRejected = errors.New("rejected by quality filter")

var defaultMinTitle = map[models.Source]int{
	models.SourceArXiv:      20,
	models.SourceHackerNews: 15,
	models.SourceDevTo:      20,
	models.SourceReddit:     25,
}

var defaultMinEngagement = map[models.Source]int{
	models.SourceArXiv:      0,
	models.SourceHackerNews: 20,
	models.SourceDevTo:      10,
	models.SourceReddit:     50,
}

var spamPhrases = []string{
	"click here",
	"buy now",
	"limited offer",
	"act fast",
	"amazing trick",
	"you won't believe",
	"doctors hate",
	"this one weird",
	"shocking",
	"must see",
}

var excludedSubreddits = map[string]bool{
	"memes":          true,
	"funny":          true,
	"pics":           true,
	"aww":            true,
	"me_irl":         true,
	"gaming":         true,
	"todayilearned":  true,
	"showerthoughts": true,
}

// QualityFilter drops low-signal items before they reach deduplication
type QualityFilter struct {
	minTitle      map[models.Source]int
	minEngagement map[models.Source]int
}

func NewQualityFilter() *QualityFilter {
	return &QualityFilter{
		minTitle:      defaultMinTitle,
		minEngagement: defaultMinEngagement,
	}
}

// Check returns nil for acceptable items. Items with a blank title skip the
// title rules; the ranker penalizes them instead.
func (q *QualityFilter) Check(item models.ContentItem) error {
	if item.ExternalID == "" {
		return fmt.Errorf("%w: missing external id", ErrRejected)
	}

	if u, err := url.Parse(item.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid url %q", ErrRejected, item.URL)
	}

	if title := strings.TrimSpace(item.Title); title != "" {
		if n := utf8.RuneCountInString(title); n < q.minTitle[item.Source] {
			return fmt.Errorf("%w: title has %d characters, minimum %d", ErrRejected, n, q.minTitle[item.Source])
		}
		lower := strings.ToLower(title)
		for _, phrase := range spamPhrases {
			if strings.Contains(lower, phrase) {
				return fmt.Errorf("%w: spam phrase %q", ErrRejected, phrase)
			}
		}
	}

	if floor := q.minEngagement[item.Source]; item.EngagementRaw < floor {
		return fmt.Errorf("%w: engagement %d below %d", ErrRejected, item.EngagementRaw, floor)
	}

	if item.Source == models.SourceReddit && excludedSubreddits[strings.ToLower(item.Channel)] {
		return fmt.Errorf("%w: excluded subreddit %s", ErrRejected, item.Channel)
	}
	return nil
}
