// Package validator wraps the public schema.org validator endpoint and
// normalizes its triple-group response into findings.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/schemascope/backend/internal/domain"
)

// DefaultEndpoint is the public schema.org validation service.
const DefaultEndpoint = "https://validator.schema.org/validate"

// antiHijackPrefix is prepended by the endpoint to defeat JSON hijacking;
// it must be stripped before decoding.
const antiHijackPrefix = ")]}'"

// requestTimeout is the fixed budget for one validation call.
const requestTimeout = 30 * time.Second

// Client submits URLs or raw payloads to the schema.org validator. It does
// not retry internally; the caller decides whether a failed pass is retried.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a validator client for the given endpoint. An empty
// endpoint selects the public service.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		endpoint: endpoint,
	}
}

// ValidateURL asks the validator to fetch and check a live page.
func (c *Client) ValidateURL(ctx context.Context, pageURL string) (*domain.ValidationResult, error) {
	form := url.Values{}
	form.Add("url", pageURL)
	return c.validate(ctx, form)
}

// ValidatePayload submits a schema fragment directly, serialized to
// canonical JSON.
func (c *Client) ValidatePayload(ctx context.Context, payload domain.SchemaPayload) (*domain.ValidationResult, error) {
	code, err := payload.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Add("code", code)
	return c.validate(ctx, form)
}

func (c *Client) validate(ctx context.Context, form url.Values) (*domain.ValidationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: validator returned status %d", domain.ErrValidationFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	text := strings.TrimPrefix(string(body), antiHijackPrefix)

	var payload validatorResponse
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: unparsable validator response: %v", domain.ErrValidationFailed, err)
	}

	return normalize(&payload), nil
}

// Wire shapes of the validator response. A property carries exactly one of
// errors, warnings, or a resolved value per pass.
type validatorResponse struct {
	TripleGroups []tripleGroup `json:"tripleGroups"`
}

type tripleGroup struct {
	Nodes []node `json:"nodes"`
}

type node struct {
	Type       string     `json:"type"`
	Properties []property `json:"properties"`
}

type property struct {
	Pred     string   `json:"pred"`
	Value    any      `json:"value"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// normalize flattens triple groups into error/warning findings and a map of
// resolved known properties keyed "nodeType.pred".
func normalize(payload *validatorResponse) *domain.ValidationResult {
	result := &domain.ValidationResult{
		Errors:          []domain.ValidationFinding{},
		Warnings:        []domain.ValidationFinding{},
		KnownProperties: map[string]any{},
	}

	if len(payload.TripleGroups) == 0 {
		result.Warnings = append(result.Warnings, domain.ValidationFinding{
			Severity: domain.SeverityInfo,
			Message:  "No schema data found in the response",
		})
		return result
	}

	for _, group := range payload.TripleGroups {
		for _, n := range group.Nodes {
			nodeType := n.Type
			if nodeType == "" {
				nodeType = "Unknown"
			}
			for _, prop := range n.Properties {
				switch {
				case len(prop.Errors) > 0:
					for _, msg := range prop.Errors {
						result.Errors = append(result.Errors, domain.ValidationFinding{
							Severity: domain.SeverityError,
							Message:  fmt.Sprintf("%s - %s: %s", nodeType, prop.Pred, msg),
							Property: prop.Pred,
						})
					}
				case len(prop.Warnings) > 0:
					for _, msg := range prop.Warnings {
						result.Warnings = append(result.Warnings, domain.ValidationFinding{
							Severity: domain.SeverityWarning,
							Message:  fmt.Sprintf("%s - %s: %s", nodeType, prop.Pred, msg),
							Property: prop.Pred,
						})
					}
				case prop.Pred != "" && prop.Value != nil:
					result.KnownProperties[nodeType+"."+prop.Pred] = prop.Value
				}
			}
		}
	}

	return result
}
