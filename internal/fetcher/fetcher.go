package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nao1215/pttcrawl/internal/model"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// AgeGateCookieName and AgeGateCookieValue form the cookie that bypasses
	// the board's age confirmation page.
	AgeGateCookieName  = "over18"
	AgeGateCookieValue = "1"
)

// Fetcher retrieves raw markup for board addresses.
type Fetcher struct {
	client    *resty.Client
	siteRoot  string
	timeout   time.Duration
	userAgent string
	cookie    *http.Cookie
	proxyAddr string
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSiteRoot sets the site root that relative addresses resolve against.
func WithSiteRoot(root string) Option {
	return func(f *Fetcher) {
		f.siteRoot = strings.TrimRight(root, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithCookie replaces the age-verification cookie.
func WithCookie(name, value string) Option {
	return func(f *Fetcher) {
		f.cookie = &http.Cookie{Name: name, Value: value}
	}
}

// WithSOCKS5Proxy routes all requests through the SOCKS5 proxy at addr.
// The address must be in "host:port" format. An empty address disables the proxy.
func WithSOCKS5Proxy(addr string) Option {
	return func(f *Fetcher) {
		f.proxyAddr = addr
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher. It fails only when the proxy address is invalid.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		siteRoot:  model.DefaultSiteRoot,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		cookie:    &http.Cookie{Name: AgeGateCookieName, Value: AgeGateCookieValue},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}

	client := resty.New().
		SetTimeout(f.timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.NoRedirectPolicy()).
		SetHeader("User-Agent", f.userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetCookie(f.cookie)

	if f.proxyAddr != "" {
		transport, err := newSOCKS5Transport(f.proxyAddr)
		if err != nil {
			return nil, err
		}
		client.SetTransport(transport)
	}

	f.client = client
	return f, nil
}

// Fetch retrieves the raw markup at address.
//
// address may be absolute or relative to the site root. An empty address
// fails with model.ErrAddressMissing. Transport errors and non-2xx responses
// fail with a *model.FetchError; for the latter it carries the response body.
func (f *Fetcher) Fetch(ctx context.Context, address string) ([]byte, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, model.ErrAddressMissing
	}
	target := f.resolve(address)

	f.logger.Debug("fetching page",
		"url", target,
		"cookie", f.cookie.String(),
		"proxy", f.proxyAddr,
	)

	resp, err := f.client.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		status := 0
		if resp != nil && resp.RawResponse != nil {
			status = resp.StatusCode()
		}
		return nil, &model.FetchError{URL: target, Status: status, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &model.FetchError{URL: target, Status: resp.StatusCode(), Body: resp.Body()}
	}

	f.logger.Debug("fetched page",
		"url", target,
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"elapsed", resp.Time(),
	)
	return resp.Body(), nil
}

// SiteRoot returns the root that relative addresses resolve against.
func (f *Fetcher) SiteRoot() string {
	return f.siteRoot
}

// resolve turns a board-relative address into an absolute URL.
func (f *Fetcher) resolve(address string) string {
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return address
	}
	if !strings.HasPrefix(address, "/") {
		address = "/" + address
	}
	return f.siteRoot + address
}
