// Package database provides SQLite-based persistent storage for scan
// results. Stored scans power the compare command, which diffs the two
// most recent scans of a site to show new and resolved issues.
//
// The database lives in the XDG data directory by default and uses the
// pure-Go modernc.org/sqlite driver, so no cgo toolchain is required.
package database
