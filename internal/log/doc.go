// Package log provides logging with automatic sanitization of sensitive
// values, built on top of the standard slog package.
//
// Site configurations may carry cookies and authorization headers so that
// sitegraph can scan pages behind a login. Those values end up as log
// attributes when verbose mode echoes per-site settings, and verbose logs
// are exactly the ones users paste into bug reports. The SecureHandler
// masks them before they reach the output.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "cookie", "session=abc123",  // Will be masked
//	    "url", "https://example.com",
//	)
package log
