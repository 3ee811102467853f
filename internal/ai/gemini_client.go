package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bilgisen/postgen/internal/models"
	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// ErrNotConfigured is returned when no API key is available
var ErrNotConfigured = errors.New("gemini client is not configured")

// PromptContext is everything the generator gets to write one post
type PromptContext struct {
	Type      models.PostType
	Category  models.Category
	Grounding []models.ContentItem
	Tip       *models.Tip
}

type GeminiClient struct {
	client  *resty.Client
	apiKey  string
	model   string
	baseURL string
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Option customizes a GeminiClient
type Option func(*GeminiClient)

// WithBaseURL points the client at another endpoint (tests, proxies)
func WithBaseURL(url string) Option {
	return func(g *GeminiClient) { g.baseURL = strings.TrimRight(url, "/") }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(g *GeminiClient) { g.client.SetTimeout(d) }
}

// WithRetries sets the total number of attempts per generation
func WithRetries(attempts int) Option {
	return func(g *GeminiClient) {
		if attempts < 1 {
			attempts = 1
		}
		g.client.SetRetryCount(attempts - 1)
	}
}

// WithRetryWait sets the backoff bounds between attempts
func WithRetryWait(min, max time.Duration) Option {
	return func(g *GeminiClient) {
		g.client.SetRetryWaitTime(min).SetRetryMaxWaitTime(max)
	}
}

func NewGeminiClient(apiKey, model string, opts ...Option) *GeminiClient {
	g := &GeminiClient{
		client: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
			}),
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes the post body for the given context
func (g *GeminiClient) Generate(ctx context.Context, pc PromptContext) (string, error) {
	if g == nil || g.apiKey == "" {
		return "", ErrNotConfigured
	}

	prompt, err := BuildPrompt(pc)
	if err != nil {
		return "", err
	}

	text, err := g.callGeminiAPI(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("error calling Gemini API: %w", err)
	}
	return text, nil
}

func (g *GeminiClient) callGeminiAPI(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)

	req := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{
				Text: prompt,
			}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
	}

	var resp, apiErr geminiResponse
	r, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(req).
		SetResult(&resp).
		SetError(&apiErr).
		Post(url)

	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}

	if r.IsError() {
		if apiErr.Error != nil {
			return "", fmt.Errorf("API error (status %d): %s", r.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("API returned status %d", r.StatusCode())
	}

	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
