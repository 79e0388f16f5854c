package domain

// SchemaMap holds the structured-data blocks extracted from a single page,
// keyed by schema.org type. When a page embeds two blocks of the same type
// the later one in document order wins; callers must tolerate that loss.
type SchemaMap map[string]any

// CompetitorStatus indicates whether a competitor URL was analyzed or skipped.
type CompetitorStatus string

const (
	CompetitorSuccess CompetitorStatus = "success"
	CompetitorSkipped CompetitorStatus = "skipped"
)

// CompetitorResult is the outcome of analyzing one competitor URL.
// It is immutable once produced and lives for a single analysis run.
type CompetitorResult struct {
	URL        string           `json:"url"`
	Schemas    SchemaMap        `json:"schemas,omitempty"`
	Status     CompetitorStatus `json:"status"`
	SkipReason string           `json:"skipReason,omitempty"`
}

// UsageStat describes how widely one schema type is used across the
// successfully analyzed competitors. A competitor contributes at most one
// count per type regardless of how many blocks of that type it embeds.
type UsageStat struct {
	SchemaType string  `json:"schemaType"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Example    any     `json:"exampleImplementation,omitempty"`
}

// Severity levels for validation findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationFinding is a single issue reported for a schema type.
type ValidationFinding struct {
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Property   string   `json:"property,omitempty"`
}

// Classification buckets for analyzed schema types.
type Classification string

const (
	ClassificationGood              Classification = "good"
	ClassificationNeedsImprovement  Classification = "needs_improvement"
	ClassificationSuggestedAddition Classification = "suggested_addition"
)

// ValidationEntry is the per-type unit emitted by the classifier: the raw
// payload, the merged validator findings, and optional LLM recommendation
// prose for one schema type present on the target page.
type ValidationEntry struct {
	Type           string              `json:"type"`
	Payload        any                 `json:"payload,omitempty"`
	Findings       []ValidationFinding `json:"findings"`
	Recommendation string              `json:"recommendation,omitempty"`
	Classification Classification      `json:"classification"`
}

// SuggestedAddition is a schema type used by competitors but missing from
// the target page. Priority equals the competitor count and drives the
// descending sort order.
type SuggestedAddition struct {
	Type           string                   `json:"type"`
	Reason         string                   `json:"reason"`
	Priority       int                      `json:"priority"`
	Recommendation *PropertyRecommendations `json:"recommendation,omitempty"`
}

// RichResultOpportunity maps an absent schema type to the search rich
// result it would enable.
type RichResultOpportunity struct {
	SchemaType string `json:"schemaType"`
	RichResult string `json:"richResult"`
	Message    string `json:"message"`
}

// AnalysisReport aggregates the full outcome of one analysis run. It is
// rebuilt fresh per request and never persisted. All slice and map fields
// are non-nil so presentation code does not special-case failures.
type AnalysisReport struct {
	URL                string                  `json:"url"`
	Keyword            string                  `json:"keyword"`
	CurrentSchemas     SchemaMap               `json:"currentSchemas"`
	CompetitorUsage    []UsageStat             `json:"competitorUsage"`
	GoodSchemas        []ValidationEntry       `json:"goodSchemas"`
	NeedsImprovement   []ValidationEntry       `json:"needsImprovement"`
	SuggestedAdditions []SuggestedAddition     `json:"suggestedAdditions"`
	RichResults        []RichResultOpportunity `json:"richResults"`
	SkippedCompetitors map[string]string       `json:"skippedCompetitors"`
	Insights           []string                `json:"insights"`
	Warnings           []string                `json:"warnings"`
}

// PropertyRecommendations is the structured answer from the recommendation
// engine for one schema type.
type PropertyRecommendations struct {
	SchemaType            string   `json:"schemaType"`
	RequiredProperties    []string `json:"requiredProperties"`
	RecommendedProperties []string `json:"recommendedProperties"`
	RichResultProperties  []string `json:"richResultProperties"`
	BestPractices         string   `json:"bestPractices"`
	Error                 string   `json:"error,omitempty"`
}

// ImplementationAnalysis is the free-text LLM analysis of a concrete schema
// payload. Fields degrade to placeholder text when the backend fails; Error
// carries the reason.
type ImplementationAnalysis struct {
	DocumentationAnalysis string `json:"documentationAnalysis"`
	CompetitorInsights    string `json:"competitorInsights"`
	Recommendations       string `json:"recommendations"`
	Error                 string `json:"error,omitempty"`
}

// ValidationResult is the normalized output of one schema.org validator pass.
type ValidationResult struct {
	Errors          []ValidationFinding `json:"errors"`
	Warnings        []ValidationFinding `json:"warnings"`
	KnownProperties map[string]any      `json:"knownProperties"`
}

// Valid reports whether the pass produced no error-severity findings.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Findings returns errors and warnings merged into a single slice,
// errors first.
func (r *ValidationResult) Findings() []ValidationFinding {
	findings := make([]ValidationFinding, 0, len(r.Errors)+len(r.Warnings))
	findings = append(findings, r.Errors...)
	findings = append(findings, r.Warnings...)
	return findings
}
