package domain

import (
	"fmt"
	"strings"
)

// AnalyzeRequest is the input surface for a full analysis run.
type AnalyzeRequest struct {
	URL     string `json:"url" binding:"required"`
	Keyword string `json:"keyword" binding:"required"`
}

// Validate checks the request before the pipeline runs. A malformed URL or
// empty keyword means the run cannot sensibly proceed.
func (r *AnalyzeRequest) Validate() error {
	if err := ValidatePageURL(r.URL); err != nil {
		return err
	}
	if strings.TrimSpace(r.Keyword) == "" {
		return fmt.Errorf("%w: keyword must not be empty", ErrInvalidRequest)
	}
	return nil
}

// ValidatePageURL checks that a target URL carries an http(s) scheme.
func ValidatePageURL(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidRequest)
	}
	return nil
}
