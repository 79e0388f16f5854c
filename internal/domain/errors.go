package domain

import "errors"

var (
	// ErrMissingCredential is returned when a required API credential is not configured
	ErrMissingCredential = errors.New("required API credential is not configured")

	// ErrFetchFailed is returned when fetching a page or upstream API fails
	ErrFetchFailed = errors.New("failed to fetch resource")

	// ErrNotFound is returned when a fetched page responds with HTTP 404;
	// unlike other fetch failures it is never worth retrying
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is returned when an upstream service responds with HTTP 429
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidCredential is returned when an upstream service responds with HTTP 401
	ErrInvalidCredential = errors.New("invalid API credential")

	// ErrValidationFailed is returned when the schema.org validator request fails
	// or its response cannot be parsed
	ErrValidationFailed = errors.New("schema validation request failed")

	// ErrUnsupportedInput is returned when the recommendation engine receives
	// input that is neither a mapping nor valid JSON text
	ErrUnsupportedInput = errors.New("unsupported input type")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
