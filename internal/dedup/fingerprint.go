package dedup

import (
	"strings"
	"time"
	"unicode"

	"github.com/bilgisen/postgen/internal/utils"
)

// NormalizeTitle lowercases, drops punctuation and collapses whitespace so
// cosmetic differences between sources do not change the fingerprint.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DayBucket is the coarse time component of a fingerprint
func DayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Fingerprint combines the normalized title with the publish day. It returns
// "" for titles with no usable characters; those items skip dedup.
func Fingerprint(title string, published time.Time) string {
	norm := NormalizeTitle(title)
	if norm == "" {
		return ""
	}
	return utils.HashParts(norm, DayBucket(published))
}
