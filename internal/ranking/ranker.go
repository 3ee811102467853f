package ranking

import (
	"sort"
	"time"

	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/models"
)

// Composite score weights
const (
	RecencyWeight    = 0.4
	EngagementWeight = 0.3
	RelevanceWeight  = 0.3
)

// Ranker scores a content pool. It holds no state between calls.
type Ranker struct {
	matcher *Matcher
}

func NewRanker(profile config.RelevanceProfile) *Ranker {
	return &Ranker{matcher: NewMatcher(profile)}
}

// Rank scores every non-suppressed item published in [asOf-window, asOf] and
// returns them best first. Items published after asOf (clock skew between
// sources) are kept with full recency.
func (r *Ranker) Rank(pool []models.ContentItem, asOf time.Time, window time.Duration) []models.RankedContent {
	if window <= 0 {
		return nil
	}
	cutoff := asOf.Add(-window)

	eligible := make([]models.ContentItem, 0, len(pool))
	for _, item := range pool {
		if item.Suppressed || item.PublishedAt.Before(cutoff) {
			continue
		}
		eligible = append(eligible, item)
	}
	if len(eligible) == 0 {
		return []models.RankedContent{}
	}

	minEng, maxEng := eligible[0].EngagementRaw, eligible[0].EngagementRaw
	for _, item := range eligible[1:] {
		if item.EngagementRaw < minEng {
			minEng = item.EngagementRaw
		}
		if item.EngagementRaw > maxEng {
			maxEng = item.EngagementRaw
		}
	}

	ranked := make([]models.RankedContent, 0, len(eligible))
	for _, item := range eligible {
		rc := models.RankedContent{
			Item:       item,
			Recency:    Recency(item.PublishedAt, asOf, window),
			Engagement: normalizeEngagement(item.EngagementRaw, minEng, maxEng),
			Relevance:  r.matcher.Score(item),
		}
		rc.Score = RecencyWeight*rc.Recency + EngagementWeight*rc.Engagement + RelevanceWeight*rc.Relevance
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	return ranked
}

// Recency decays from 1 at asOf to 0 at the window boundary along a
// smoothstep curve: flat near both ends, steep in the middle.
func Recency(published, asOf time.Time, window time.Duration) float64 {
	age := asOf.Sub(published)
	if age <= 0 {
		return 1
	}
	if age >= window {
		return 0
	}
	x := float64(age) / float64(window)
	return 1 - x*x*(3-2*x)
}

// normalizeEngagement is min-max within the batch. A batch where every item
// has the same engagement carries no signal and scores 0 throughout.
func normalizeEngagement(v, min, max int) float64 {
	if max <= min {
		return 0
	}
	return float64(v-min) / float64(max-min)
}

// less orders by score, then newer publish time, then source priority, then id.
func less(a, b models.RankedContent) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Item.PublishedAt.Equal(b.Item.PublishedAt) {
		return a.Item.PublishedAt.After(b.Item.PublishedAt)
	}
	if pa, pb := a.Item.Source.Priority(), b.Item.Source.Priority(); pa != pb {
		return pa < pb
	}
	if a.Item.ID != b.Item.ID {
		return a.Item.ID < b.Item.ID
	}
	return a.Item.ExternalID < b.Item.ExternalID
}
