package config

import "strings"

// SiteConfig holds per-site scan settings loaded from the configuration
// file. Any zero-valued field falls back to the global default, so a site
// entry only needs to specify what differs.
type SiteConfig struct {
	// Cookie is sent with every request to this site. Useful for scanning
	// pages behind a login or consent wall.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this site.
	// 0 means use the global setting.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page limit for this site.
	// 0 means use the global setting.
	MaxPages int `yaml:"max_pages,omitempty"`

	// IgnorePatterns are glob patterns for URLs to skip during crawling.
	// Matched against the URL path (e.g., "/admin/*", "*.pdf").
	IgnorePatterns []string `yaml:"ignore,omitempty"`

	// FollowPatterns restrict crawling to URLs matching at least one
	// pattern. An empty list means follow everything not ignored.
	FollowPatterns []string `yaml:"follow,omitempty"`
}

// File is the root structure of the .sitegraph configuration file.
type File struct {
	// Defaults apply to every site unless overridden per-site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a hostname (or hostname prefix) to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the effective configuration for the given hostname,
// merging the file-level defaults with the best-matching site entry.
// Matching is case-insensitive; an entry matches when it equals the hostname
// or when the hostname ends with "." + entry (so "example.com" also covers
// "www.example.com").
func (f *File) GetSiteConfig(host string) SiteConfig {
	merged := f.Defaults
	if len(merged.Headers) > 0 {
		clone := make(map[string]string, len(merged.Headers))
		for k, v := range merged.Headers {
			clone[k] = v
		}
		merged.Headers = clone
	}
	if f.Sites == nil {
		return merged
	}

	host = strings.ToLower(host)
	for name, sc := range f.Sites {
		name = strings.ToLower(name)
		if host != name && !strings.HasSuffix(host, "."+name) {
			continue
		}
		if sc.Cookie != "" {
			merged.Cookie = sc.Cookie
		}
		if len(sc.Headers) > 0 {
			if merged.Headers == nil {
				merged.Headers = make(map[string]string, len(sc.Headers))
			}
			for k, v := range sc.Headers {
				merged.Headers[k] = v
			}
		}
		if sc.Depth > 0 {
			merged.Depth = sc.Depth
		}
		if sc.MaxPages > 0 {
			merged.MaxPages = sc.MaxPages
		}
		if len(sc.IgnorePatterns) > 0 {
			merged.IgnorePatterns = append(merged.IgnorePatterns, sc.IgnorePatterns...)
		}
		if len(sc.FollowPatterns) > 0 {
			merged.FollowPatterns = append(merged.FollowPatterns, sc.FollowPatterns...)
		}
	}
	return merged
}
