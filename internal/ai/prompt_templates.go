package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/utils"
)

// PromptTemplates contains the prompt templates for each post type
var PromptTemplates = struct {
	NewsPost string
	TipPost  string
}{
	NewsPost: `You are a professional LinkedIn content creator specializing in %[1]s topics.

Create an engaging LinkedIn post about this recent development:

%[2]s
REQUIREMENTS:
1. Start with a strong hook (question, surprising stat, or bold statement)
2. Keep it concise (150-250 words)
3. Use line breaks every 2-3 sentences for readability
4. Include 2-3 relevant emojis (strategic placement, not excessive)
5. Explain why this matters to professionals in %[1]s
6. End with an engaging question to drive comments
7. Add 3-5 relevant hashtags at the end
8. Professional yet conversational tone, no promotional language
9. Only state facts that appear in the source material above

STRUCTURE:
[Hook]

[Context - what happened]

[Analysis - why it matters]

[Key takeaways]

[Call-to-action question]

[Hashtags]

Write the complete LinkedIn post now:`,

	TipPost: `You are a professional LinkedIn content creator sharing career and technical advice.

Create an engaging LinkedIn post sharing this professional tip:

TOPIC: %s
CATEGORY: %s
TIP: %s

REQUIREMENTS:
1. Start with a relatable problem or situation
2. Keep it practical and actionable (150-250 words)
3. Use line breaks for readability
4. Include 2-3 relevant emojis
5. Share the tip as a lesson learned or best practice
6. Add specific examples or use cases
7. End with an engaging question
8. Add 3-5 relevant hashtags
9. Conversational but professional tone

Write the complete LinkedIn post now:`,
}

// maxSummaryRunes bounds each grounding summary inside the prompt
const maxSummaryRunes = 700

// BuildPrompt renders the template matching the post type
func BuildPrompt(pc PromptContext) (string, error) {
	switch pc.Type {
	case models.PostTypeNews:
		return BuildNewsPrompt(pc.Category, pc.Grounding)
	case models.PostTypeTip:
		if pc.Tip == nil {
			return "", errors.New("tip post requires a tip")
		}
		return BuildTipPrompt(*pc.Tip), nil
	}
	return "", fmt.Errorf("unsupported post type %q", pc.Type)
}

// BuildNewsPrompt creates the prompt for a news post grounded on items
func BuildNewsPrompt(category models.Category, grounding []models.ContentItem) (string, error) {
	if len(grounding) == 0 {
		return "", errors.New("news post requires grounding content")
	}

	var sources strings.Builder
	for i, item := range grounding {
		if len(grounding) > 1 {
			fmt.Fprintf(&sources, "SOURCE %d\n", i+1)
		}
		fmt.Fprintf(&sources, "TITLE: %s\n", escapeForPrompt(item.Title))
		fmt.Fprintf(&sources, "SUMMARY: %s\n", escapeForPrompt(utils.Truncate(item.Summary, maxSummaryRunes)))
		fmt.Fprintf(&sources, "URL: %s\n", escapeForPrompt(item.URL))
		fmt.Fprintf(&sources, "CATEGORY: %s\n\n", item.Category)
	}

	return fmt.Sprintf(PromptTemplates.NewsPost, displayCategory(category, grounding[0].Category), sources.String()), nil
}

// BuildTipPrompt creates the prompt for a tip post
func BuildTipPrompt(tip models.Tip) string {
	return fmt.Sprintf(PromptTemplates.TipPost,
		escapeForPrompt(tip.Topic),
		displayCategory(tip.Category, models.CategoryOther),
		escapeForPrompt(tip.Content))
}

func displayCategory(c, fallback models.Category) string {
	if c == "" {
		c = fallback
	}
	if c == "" || c == models.CategoryOther {
		return "Tech"
	}
	return string(c)
}

// escapeForPrompt flattens whitespace so source text cannot break the template layout
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
