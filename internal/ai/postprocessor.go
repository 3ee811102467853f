package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bilgisen/postgen/internal/models"
)

// ErrBodyTooShort is returned when the cleaned body is below the minimum length
var ErrBodyTooShort = errors.New("generated body too short")

const maxHashtags = 5

var (
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F]`)
	codeFence      = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	dangerousTags  = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed|link|meta)[^>]*>`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
	sentenceEnd    = regexp.MustCompile(`([.!?])\s+`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// Hashtags are appended per category when the model supplied fewer than five
var Hashtags = map[models.Category][]string{
	models.CategoryAI:          {"#ArtificialIntelligence", "#MachineLearning", "#AI", "#DeepLearning", "#Tech"},
	models.CategoryDevOps:      {"#DevOps", "#CloudComputing", "#Kubernetes", "#Docker", "#CICD"},
	models.CategoryCloud:       {"#CloudComputing", "#AWS", "#Azure", "#DevOps", "#Tech"},
	models.CategoryDataScience: {"#DataScience", "#Analytics", "#BigData", "#MachineLearning", "#AI"},
	models.CategoryOther:       {"#Technology", "#Innovation", "#Tech", "#SoftwareEngineering", "#Coding"},
}

type PostProcessor struct {
	minBodyLength int
}

func NewPostProcessor(minBodyLength int) *PostProcessor {
	return &PostProcessor{minBodyLength: minBodyLength}
}

// ProcessBody cleans a generated body, checks its length and applies the
// LinkedIn formatting. The length check runs before hashtags are added.
func (p *PostProcessor) ProcessBody(body string, category models.Category) (string, error) {
	body = p.cleanText(body)

	if n := utf8.RuneCountInString(body); n < p.minBodyLength {
		return "", fmt.Errorf("%w: %d characters, minimum %d", ErrBodyTooShort, n, p.minBodyLength)
	}

	body = ensureLineBreaks(body)
	body = addHashtags(body, category)
	return strings.TrimSpace(body), nil
}

// cleanText removes fences, markup and control characters while keeping
// paragraph structure
func (p *PostProcessor) cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = codeFence.ReplaceAllString(s, "")
	s = dangerousTags.ReplaceAllString(s, "")
	s = controlChars.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// ensureLineBreaks inserts a paragraph break every three sentences when the
// body has fewer than three breaks already
func ensureLineBreaks(text string) string {
	if strings.Count(text, "\n\n") >= 3 {
		return text
	}

	var (
		b     strings.Builder
		count int
		last  int
	)
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:loc[3]])
		last = loc[1]
		count++
		if count%3 == 0 {
			b.WriteString("\n\n")
		} else {
			b.WriteString(text[loc[3]:loc[1]])
		}
	}
	b.WriteString(text[last:])

	return blankRuns.ReplaceAllString(b.String(), "\n\n")
}

func addHashtags(text string, category models.Category) string {
	existing := hashtagPattern.FindAllString(text, -1)
	if len(existing) >= maxHashtags {
		return text
	}

	present := make(map[string]bool, len(existing))
	for _, tag := range existing {
		present[strings.ToLower(tag)] = true
	}

	tags, ok := Hashtags[category]
	if !ok {
		tags = Hashtags[models.CategoryOther]
	}

	var add []string
	for _, tag := range tags {
		if len(existing)+len(add) >= maxHashtags {
			break
		}
		if !present[strings.ToLower(tag)] {
			add = append(add, tag)
		}
	}
	if len(add) == 0 {
		return text
	}

	text = strings.TrimRight(text, " \n")
	if len(existing) > 0 && strings.HasSuffix(text, existing[len(existing)-1]) {
		return text + " " + strings.Join(add, " ")
	}
	return text + "\n\n" + strings.Join(add, " ")
}
