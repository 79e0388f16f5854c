// Package llm wraps a Gemini-style text-generation API behind the
// Recommender interface. Backend failures degrade to placeholder results so
// a flaky model never breaks the overall report.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/schemascope/backend/internal/domain"
	"github.com/schemascope/backend/internal/infrastructure/cache"
	"github.com/schemascope/backend/internal/infrastructure/pacing"
)

// DefaultBaseURL is the Google Generative Language API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is the text model used for schema analysis.
const DefaultModel = "gemini-pro"

// placeholderText is returned for each output field when the backend is
// unavailable after retries.
const placeholderText = "Analysis unavailable"

// Client is a recommendation engine backed by a text-generation API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	limiter    *pacing.Limiter
	retry      pacing.RetryConfig
	cache      *cache.LRU
}

// NewClient creates an LLM client. Results are cached per (method, input)
// with an LRU bounded to 100 entries for the process lifetime.
func NewClient(apiKey, baseURL, model string, limiter *pacing.Limiter) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		limiter: limiter,
		retry:   pacing.DefaultRetry(),
		cache:   cache.NewLRU(cache.DefaultCapacity, 0),
	}
}

// Wire shapes for the generateContent call.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// PropertyRecommendations asks the model for the required, recommended and
// rich-result properties of a schema type. Backend failure yields a result
// with Error set and placeholder fields, not an error return.
func (c *Client) PropertyRecommendations(ctx context.Context, schemaType string) (*domain.PropertyRecommendations, error) {
	cacheKey := "properties:" + schemaType
	if cached, err := c.cache.Get(cacheKey); err == nil {
		return cached.(*domain.PropertyRecommendations), nil
	}

	prompt := fmt.Sprintf(`For the Schema.org type '%s', provide:
1. Required properties
2. Recommended properties
3. Properties that enable rich results
4. Common implementation mistakes to avoid

Respond with a single JSON object using exactly these keys:
"requiredProperties" (array of strings), "recommendedProperties" (array of strings),
"richResultProperties" (array of strings), "bestPractices" (string).`, schemaType)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		log.Printf("[llm] property recommendations for %q failed: %v", schemaType, err)
		return &domain.PropertyRecommendations{
			SchemaType:            schemaType,
			RequiredProperties:    []string{},
			RecommendedProperties: []string{},
			RichResultProperties:  []string{},
			BestPractices:         placeholderText,
			Error:                 err.Error(),
		}, nil
	}

	recs := decodeRecommendations(schemaType, text)
	c.cache.Set(cacheKey, recs)
	return recs, nil
}

// decodeRecommendations prefers the structured JSON the prompt asks for and
// falls back to keeping the whole response as opaque prose. The model does
// not always honor the output contract, so the fallback is expected.
func decodeRecommendations(schemaType, text string) *domain.PropertyRecommendations {
	recs := &domain.PropertyRecommendations{
		SchemaType:            schemaType,
		RequiredProperties:    []string{},
		RecommendedProperties: []string{},
		RichResultProperties:  []string{},
	}

	var parsed struct {
		RequiredProperties    []string `json:"requiredProperties"`
		RecommendedProperties []string `json:"recommendedProperties"`
		RichResultProperties  []string `json:"richResultProperties"`
		BestPractices         string   `json:"bestPractices"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		recs.BestPractices = text
		return recs
	}

	if parsed.RequiredProperties != nil {
		recs.RequiredProperties = parsed.RequiredProperties
	}
	if parsed.RecommendedProperties != nil {
		recs.RecommendedProperties = parsed.RecommendedProperties
	}
	if parsed.RichResultProperties != nil {
		recs.RichResultProperties = parsed.RichResultProperties
	}
	recs.BestPractices = parsed.BestPractices
	return recs
}

// AnalyzeImplementation runs the three analysis prompts against a concrete
// schema payload. Unsupported input is rejected; backend failures degrade
// field by field.
func (c *Client) AnalyzeImplementation(ctx context.Context, payload domain.SchemaPayload) (*domain.ImplementationAnalysis, error) {
	canonical, err := payload.CanonicalJSON()
	if err != nil {
		return nil, err
	}

	cacheKey := "implementation:" + canonical
	if cached, err := c.cache.Get(cacheKey); err == nil {
		return cached.(*domain.ImplementationAnalysis), nil
	}

	base := fmt.Sprintf("Analyze the following schema.org markup:\n%s\n\n", canonical)
	analysis := &domain.ImplementationAnalysis{}

	type analysisPrompt struct {
		name   string
		prompt string
		field  *string
	}
	prompts := []analysisPrompt{
		{
			name:   "documentation",
			prompt: base + "Compare this implementation against Google's official documentation and Schema.org specifications. Identify any missing required properties or potential improvements.",
			field:  &analysis.DocumentationAnalysis,
		},
		{
			name:   "competitors",
			prompt: base + "Analyze this schema implementation in comparison to common competitor implementations. Identify unique approaches and potential improvements.",
			field:  &analysis.CompetitorInsights,
		},
		{
			name:   "recommendations",
			prompt: base + "Generate specific recommendations for improving this schema markup, focusing on SEO impact and rich result potential.",
			field:  &analysis.Recommendations,
		},
	}

	failures := 0
	for _, p := range prompts {
		text, err := c.generate(ctx, p.prompt)
		if err != nil {
			log.Printf("[llm] %s analysis failed: %v", p.name, err)
			*p.field = placeholderText
			analysis.Error = err.Error()
			failures++
			continue
		}
		*p.field = text
	}

	// Only fully successful analyses are worth keeping for the process
	// lifetime; degraded ones should be retried on the next request.
	if failures == 0 {
		c.cache.Set(cacheKey, analysis)
	}
	return analysis, nil
}

// generate issues one paced, retried generateContent call and returns the
// first candidate's text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: LLM API key", domain.ErrMissingCredential)
	}
	var text string
	err := c.retry.Do(ctx, "llm generate", func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}
		}
		var genErr error
		text, genErr = c.doGenerate(ctx, prompt)
		return genErr
	})
	return text, err
}

func (c *Client) doGenerate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", fmt.Errorf("%w: LLM backend rejected the key", domain.ErrInvalidCredential)
	case http.StatusForbidden:
		if isKeyError(body) {
			return "", fmt.Errorf("%w: LLM backend rejected the key", domain.ErrInvalidCredential)
		}
		return "", fmt.Errorf("%w: LLM backend returned status 403", domain.ErrFetchFailed)
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: LLM backend returned 429", domain.ErrRateLimited)
	default:
		return "", fmt.Errorf("%w: LLM backend returned status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response generated")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// isKeyError distinguishes a 403 caused by a bad key from a transient
// permission hiccup.
func isKeyError(body []byte) bool {
	return bytes.Contains(bytes.ToLower(body), []byte("api key"))
}

// stripCodeFence removes a surrounding markdown code fence, which the model
// frequently adds around JSON answers.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
