package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to keep scans polite toward the sites being
// audited while still finishing in reasonable time on typical sites.
const (
	// DefaultTimeout is the per-request connection timeout. Most sites
	// respond well under this; anything slower gets flagged by the
	// response-time audit check long before the timeout matters.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDepth of 5 covers the navigable depth of most sites.
	// Deeper pages are usually pagination or archives, which add little
	// to the link graph. Adjustable via the --depth CLI flag.
	DefaultCrawlDepth = 5

	// DefaultMaxPages is the maximum number of pages to crawl per site.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 200

	// DefaultBatchSize of 4 concurrent site scans balances throughput with
	// resource usage when scanning multiple sites in one invocation.
	DefaultBatchSize = 4

	// DefaultCrawlDelay is the delay between requests during crawling.
	// This is a politeness setting to avoid overwhelming the sites we
	// audit. Can be adjusted via the --crawl-delay CLI flag.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies sitegraph in HTTP requests.
	// A descriptive User-Agent lets operators identify auditor traffic
	// in their logs.
	DefaultUserAgent = "sitegraph/1.0 (+https://github.com/nao1215/sitegraph)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 10MB covers even heavy HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "sitegraph"
)

// Config holds all configuration options for sitegraph.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Timeout is the connection timeout for each HTTP request.
	// This applies to individual connections, not the overall scan duration.
	Timeout time.Duration

	// CrawlDepth is the maximum recursion depth for web crawling.
	// Depth 0 means only fetch the start page.
	CrawlDepth int

	// MaxPages is the maximum number of pages to crawl per site.
	// A value of 0 means use the default (DefaultMaxPages).
	MaxPages int

	// CrawlDelay is the delay between HTTP requests during crawling.
	// This is a politeness setting; use 0 only against your own servers.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. 0 means the default.
	MaxBodySize int64

	// BatchSize is the number of concurrent scans when processing
	// multiple sites. Higher values increase throughput but multiply
	// the outbound request rate.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sitegraph in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the
	// config file. Populated by LoadConfigFile and used during scanning.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// GraphFile is the output file path for the {nodes, edges} JSON
	// document consumed by the force-directed graph viewer.
	// When empty, no graph file is written.
	GraphFile string

	// SaveToDB indicates whether to save scan results to the database.
	SaveToDB bool

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/sitegraph on Linux).
	DBDir string

	// Targets is the list of site URLs to scan.
	// Must contain at least one absolute http(s) URL.
	Targets []string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, delays).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		CrawlDepth:  DefaultCrawlDepth,
		MaxPages:    DefaultMaxPages,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		BatchSize:   DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for sitegraph.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/sitegraph
// On macOS: ~/Library/Application Support/sitegraph
// On Windows: %LOCALAPPDATA%\sitegraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitegraph.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
