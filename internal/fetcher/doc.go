// Package fetcher retrieves raw board markup over HTTP.
//
// A Fetcher resolves board-relative addresses against a configured site
// root, attaches the age-verification cookie and issues exactly one GET per
// call with a fixed timeout. It never retries and never follows redirects:
// both are left to the caller.
//
// Requests can optionally be routed through a SOCKS5 proxy, which is
// useful when the board is only reachable from certain networks.
//
// Usage:
//
//	f, err := fetcher.New(fetcher.WithTimeout(5 * time.Second))
//	if err != nil {
//	    return err
//	}
//	raw, err := f.Fetch(ctx, "/bbs/Drink/index.html")
package fetcher
