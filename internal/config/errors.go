package config

import "errors"

// Configuration validation errors.
// These are sentinel errors so callers can use errors.Is to distinguish
// validation failures and provide targeted help text.
var (
	// ErrNoTarget is returned when no scan target URL was provided.
	ErrNoTarget = errors.New("config: no target URL specified")

	// ErrInvalidTimeout is returned when the timeout is zero or negative.
	ErrInvalidTimeout = errors.New("config: timeout must be positive")

	// ErrInvalidBatchSize is returned when the batch size is zero or negative.
	ErrInvalidBatchSize = errors.New("config: batch size must be positive")

	// ErrConflictingReportFormats is returned when both JSON and Markdown
	// report formats are requested simultaneously.
	ErrConflictingReportFormats = errors.New("config: cannot use both JSON and Markdown report formats")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("config: crawl delay must not be negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("config: max body size must not be negative")

	// ErrConfigNotFound is returned when no configuration file could be
	// located in any of the search paths.
	ErrConfigNotFound = errors.New("config: configuration file not found")
)
