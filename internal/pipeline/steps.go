package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/sitegraph/internal/audit"
	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/crawler"
	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/graph"
	"github.com/nao1215/sitegraph/internal/model"
)

// CrawlStep performs web crawling on the target site.
// This step discovers pages, extracts content and links, and records
// timing information for later audit checks.
//
// Design decision: Crawling is the first step because every later step
// (audit, graph, persistence) operates on the page list it produces.
type CrawlStep struct {
	// client is the HTTP client used for fetching pages.
	client *http.Client

	// maxDepth limits crawl recursion.
	maxDepth int

	// maxPages limits total pages to crawl.
	maxPages int

	// delay between requests for politeness.
	delay time.Duration

	// userAgent is the User-Agent header to send with requests.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// cookie is sent with every request, for sites behind a login.
	cookie string

	// headers are additional HTTP headers sent with every request.
	headers map[string]string

	// ignorePatterns are URL path patterns to skip during crawling.
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	followPatterns []string

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxDepth sets the maximum crawl depth.
func WithCrawlMaxDepth(depth int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxDepth = depth
	}
}

// WithCrawlMaxPages sets the maximum pages to crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlDelay sets the delay between requests.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlUserAgent sets the User-Agent header for HTTP requests.
// A descriptive User-Agent helps site operators identify auditor traffic.
func WithCrawlUserAgent(userAgent string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.userAgent = userAgent
	}
}

// WithCrawlMaxBodySize sets the maximum response body size in bytes.
// Responses larger than this are truncated to prevent memory exhaustion.
func WithCrawlMaxBodySize(maxBodySize int64) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxBodySize = maxBodySize
	}
}

// WithCrawlCookie sets a cookie sent with every request.
func WithCrawlCookie(cookie string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.cookie = cookie
	}
}

// WithCrawlHeaders sets additional HTTP headers sent with every request.
func WithCrawlHeaders(headers map[string]string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.headers = headers
	}
}

// WithCrawlIgnorePatterns sets URL path patterns to skip during crawling.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlFollowPatterns sets URL path patterns to follow during crawling.
func WithCrawlFollowPatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.followPatterns = patterns
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step.
//
// Default politeness settings are conservative to be respectful of the
// sites being audited:
//   - delay: config.DefaultCrawlDelay between requests
//   - userAgent: identifies sitegraph (config.DefaultUserAgent)
//   - maxBodySize: config.DefaultMaxBodySize to prevent memory exhaustion
func NewCrawlStep(client *http.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client:      client,
		maxDepth:    config.DefaultCrawlDepth,
		maxPages:    config.DefaultMaxPages,
		delay:       config.DefaultCrawlDelay,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
// A crawl error is non-fatal when partial results were collected: the
// audit and graph steps still process whatever pages came back.
func (s *CrawlStep) Do(ctx context.Context, report *model.ScanReport) error {
	spiderOpts := []crawler.SpiderOption{
		crawler.WithMaxDepth(s.maxDepth),
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
		crawler.WithUserAgent(s.userAgent),
		crawler.WithMaxBodySize(s.maxBodySize),
	}

	if s.cookie != "" {
		spiderOpts = append(spiderOpts, crawler.WithCookie(s.cookie))
	}
	if len(s.headers) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithHeaders(s.headers))
	}
	if len(s.ignorePatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithIgnorePatterns(s.ignorePatterns))
	}
	if len(s.followPatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithFollowPatterns(s.followPatterns))
	}

	spider := crawler.NewSpider(s.client, spiderOpts...)

	start := time.Now()
	pages, err := spider.Crawl(ctx, report.Site)
	report.CrawlDuration = time.Since(start)
	report.Pages = pages

	if err != nil {
		if len(pages) == 0 {
			return err
		}
		// Partial results are still worth auditing.
		s.logger.Warn("crawl completed with error",
			"error", err,
			"pages", len(pages),
		)
	}

	s.logger.Info("crawl completed",
		"pages", len(pages),
		"duration", report.CrawlDuration,
	)

	return nil
}

// AuditStep runs the SEO audit checks on all crawled pages.
//
// Design decision: Auditing is a separate step from crawling because it
// operates on the accumulated page list and has its own configuration
// (which checks to run). This also lets tests audit canned pages.
type AuditStep struct {
	// auditor coordinates the individual checks.
	auditor *audit.Auditor

	// logger for structured logging.
	logger *slog.Logger
}

// AuditStepOption configures an AuditStep.
type AuditStepOption func(*AuditStep)

// WithAuditLogger sets a custom logger for the audit step.
func WithAuditLogger(logger *slog.Logger) AuditStepOption {
	return func(s *AuditStep) {
		s.logger = logger
	}
}

// WithAuditor replaces the default auditor. Useful for running a subset
// of checks.
func WithAuditor(a *audit.Auditor) AuditStepOption {
	return func(s *AuditStep) {
		s.auditor = a
	}
}

// NewAuditStep creates a new audit step with the default check set.
func NewAuditStep(opts ...AuditStepOption) *AuditStep {
	s := &AuditStep{
		auditor: audit.NewAuditor(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AuditStep) Name() string {
	return "audit"
}

// Do executes the audit step.
func (s *AuditStep) Do(ctx context.Context, report *model.ScanReport) error {
	if len(report.Pages) == 0 {
		s.logger.Debug("skipping audit, no pages crawled")
		return nil
	}

	issues, err := s.auditor.Audit(ctx, report.Pages)
	if err != nil {
		return err
	}

	report.AddIssues(issues...)

	s.logger.Info("audit completed",
		"pages", len(report.Pages),
		"issues", len(issues),
	)

	return nil
}

// GraphStep builds the site link graph from the crawled pages and
// audit issues.
//
// Design decision: Graph construction runs after the audit so node colors
// reflect the issues found. The graph package is pure; this step is the
// only place that connects it to the scan report.
type GraphStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// GraphStepOption configures a GraphStep.
type GraphStepOption func(*GraphStep)

// WithGraphLogger sets a custom logger for the graph step.
func WithGraphLogger(logger *slog.Logger) GraphStepOption {
	return func(s *GraphStep) {
		s.logger = logger
	}
}

// NewGraphStep creates a new graph construction step.
func NewGraphStep(opts ...GraphStepOption) *GraphStep {
	s := &GraphStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *GraphStep) Name() string {
	return "graph"
}

// Do executes the graph construction step.
func (s *GraphStep) Do(_ context.Context, report *model.ScanReport) error {
	report.Graph = graph.Build(report.Pages, report.Issues)

	s.logger.Info("graph built",
		"nodes", len(report.Graph.Nodes),
		"edges", len(report.Graph.Edges),
		"broken_links", report.Graph.BrokenEdgeCount(),
	)

	return nil
}

// PersistStep saves the completed scan report to the database.
// It must run last so the stored report includes the graph and all issues.
type PersistStep struct {
	// db is the scan database.
	db *database.ScanDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persistence step writing to db.
func NewPersistStep(db *database.ScanDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, report *model.ScanReport) error {
	id, err := s.db.SaveScan(ctx, report)
	if err != nil {
		return err
	}

	s.logger.Info("scan saved",
		"scan_id", id,
		"site", report.Site,
	)

	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// CrawlDepth is the maximum depth for web crawling.
	CrawlDepth int

	// CrawlMaxPages is the maximum number of pages to crawl.
	CrawlMaxPages int

	// CrawlDelay is the delay between HTTP requests during crawling.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Cookie is the cookie string to send with HTTP requests.
	Cookie string

	// Headers are additional HTTP headers to send with requests.
	Headers map[string]string

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow during crawling.
	FollowPatterns []string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineCrawlDepth sets the crawl depth for the pipeline.
func WithPipelineCrawlDepth(depth int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDepth = depth
	}
}

// WithPipelineCrawlMaxPages sets the maximum pages to crawl.
func WithPipelineCrawlMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlMaxPages = maxPages
	}
}

// WithPipelineCrawlDelay sets the delay between HTTP requests during
// crawling. A minimum of 500ms is recommended for sites you don't operate.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineUserAgent sets the User-Agent header for HTTP requests.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.UserAgent = userAgent
	}
}

// WithPipelineMaxBodySize sets the maximum response body size in bytes.
func WithPipelineMaxBodySize(maxBodySize int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxBodySize = maxBodySize
	}
}

// WithPipelineCookie sets the cookie for HTTP requests.
func WithPipelineCookie(cookie string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Cookie = cookie
	}
}

// WithPipelineHeaders sets additional HTTP headers.
func WithPipelineHeaders(headers map[string]string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Headers = headers
	}
}

// WithPipelineIgnorePatterns sets URL patterns to skip during crawling.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL patterns to follow during crawling.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// DefaultPipeline creates a pipeline with the standard scan steps:
// crawl, audit, and graph construction. Persistence is added separately
// by the caller when database storage is enabled.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full scan
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent step ordering
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineCrawlDepth, etc).
func DefaultPipeline(client *http.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		CrawlDepth:    config.DefaultCrawlDepth,
		CrawlMaxPages: config.DefaultMaxPages,
		CrawlDelay:    config.DefaultCrawlDelay,
		UserAgent:     config.DefaultUserAgent,
		MaxBodySize:   config.DefaultMaxBodySize,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	crawlOpts := []CrawlStepOption{
		WithCrawlMaxDepth(cfg.CrawlDepth),
		WithCrawlMaxPages(cfg.CrawlMaxPages),
		WithCrawlDelay(cfg.CrawlDelay),
		WithCrawlUserAgent(cfg.UserAgent),
		WithCrawlMaxBodySize(cfg.MaxBodySize),
		WithCrawlLogger(p.logger),
	}
	if cfg.Cookie != "" {
		crawlOpts = append(crawlOpts, WithCrawlCookie(cfg.Cookie))
	}
	if len(cfg.Headers) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlHeaders(cfg.Headers))
	}
	if len(cfg.IgnorePatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlIgnorePatterns(cfg.IgnorePatterns))
	}
	if len(cfg.FollowPatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlFollowPatterns(cfg.FollowPatterns))
	}

	p.AddSteps(
		NewCrawlStep(client, crawlOpts...),
		NewAuditStep(
			WithAuditLogger(p.logger),
		),
		NewGraphStep(
			WithGraphLogger(p.logger),
		),
	)

	return p
}
