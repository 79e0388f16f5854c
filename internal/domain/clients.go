package domain

import "context"

// SearchClient returns the top-ranking result URLs for a keyword.
type SearchClient interface {
	TopURLs(ctx context.Context, keyword string, n int) ([]string, error)
}

// SchemaExtractor fetches a page and parses its embedded JSON-LD blocks.
type SchemaExtractor interface {
	Extract(ctx context.Context, url string) (SchemaMap, error)
	ExtractWithUserAgent(ctx context.Context, url, userAgent string) (SchemaMap, error)
}

// SchemaOrgValidator submits a payload or URL to the public schema.org
// validator and normalizes its response.
type SchemaOrgValidator interface {
	ValidateURL(ctx context.Context, url string) (*ValidationResult, error)
	ValidatePayload(ctx context.Context, payload SchemaPayload) (*ValidationResult, error)
}

// Recommender produces LLM-backed schema recommendations. Implementations
// degrade to structured placeholder results on backend failure rather than
// returning an error for every field.
type Recommender interface {
	PropertyRecommendations(ctx context.Context, schemaType string) (*PropertyRecommendations, error)
	AnalyzeImplementation(ctx context.Context, payload SchemaPayload) (*ImplementationAnalysis, error)
}
