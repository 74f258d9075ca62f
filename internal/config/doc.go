// Package config provides configuration structures and utilities for
// sitegraph. It defines the main configuration options for crawling,
// auditing, and report generation preferences.
package config
