// Package log provides secure logging built on top of the standard slog
// package.
//
// The SecureHandler masks sensitive information before it reaches the
// underlying handler:
//   - Cookies, including the age-gate cookie sent with every request
//   - Authorization and proxy credentials
//   - Secret values detected by pattern matching (tokens, keys)
//   - Credentials embedded in proxy addresses and URLs
//
// String values longer than DefaultMaxValueLength bytes are truncated so a
// page snapshot never floods the log. Use WithMaxValueLength and
// WithRedactedKeys to adjust the handler.
//
// Even in verbose mode, sensitive values are masked so logs can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("page fetched",
//	    "url", "https://www.ptt.cc/bbs/Drink/index.html",
//	    "cookie", "over18=1", // logged as ***REDACTED***
//	)
package log
