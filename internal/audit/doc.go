// Package audit runs SEO checks against crawled pages.
//
// The package follows a coordinator pattern: an Auditor holds a list of
// Check implementations and runs each against every page, collecting the
// issues they report. Checks are independent of one another; each focuses
// on a single concern (status codes, titles, meta tags, headings, ...).
//
// Severity is not decided by the checks. They emit issue types, and the
// model package's central mapping assigns severity, impact, and remediation
// text, so assessments stay consistent across the application.
//
// Checks that need DOM selection beyond the crawler's pre-parsed fields
// (anchor text quality, viewport meta) re-parse the stored page markup with
// goquery.
package audit
