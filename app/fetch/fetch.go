package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
)

const (
	directTimeout = 30 * time.Second
	proxyTimeout  = 60 * time.Second // Tor circuits are slow

	retryCount    = 2 // three attempts total
	retryWaitTime = 500 * time.Millisecond
)

// Error reports a fetch that failed on both the direct and (when enabled)
// proxy paths.
type Error struct {
	URL        string
	StatusCode int // last HTTP status, 0 for connection-level failures
	ViaProxy   bool
	Err        error
}

func (e *Error) Error() string {
	path := "direct"
	if e.ViaProxy {
		path = "proxy"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed (%s, status %d): %v", e.URL, path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed (%s): %v", e.URL, path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client performs HTTP requests with bounded retry on transient server
// errors and an automatic Tor fallback when a direct request looks blocked.
type Client struct {
	direct *resty.Client
	proxy  *resty.Client // nil when Tor is disabled
}

// NewClient builds a fetch client. proxyAddr is a socks5 host:port; empty
// disables the fallback path entirely.
func NewClient(proxyAddr string) *Client {
	c := &Client{
		direct: newRestyClient(directTimeout),
	}

	if proxyAddr != "" {
		c.proxy = newRestyClient(proxyTimeout)
		c.proxy.SetProxy("socks5://" + proxyAddr)
	}

	return c
}

func newRestyClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(retryCount)
	client.SetRetryWaitTime(retryWaitTime)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil || r == nil {
			return false
		}
		code := r.StatusCode()
		return code == 500 || code == 502 || code == 504
	})
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	client.SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		// Rotating identity string; cosmetic, not a security boundary.
		req.SetHeader("User-Agent", browser.Computer())
		return nil
	})
	return client
}

// GetText fetches url and returns the response body as text. When
// forceProxy is set the direct attempt is skipped entirely.
func (c *Client) GetText(ctx context.Context, url string, forceProxy bool) (string, error) {
	return c.do(ctx, url, forceProxy, func(client *resty.Client) (*resty.Response, error) {
		return client.R().SetContext(ctx).Get(url)
	})
}

// PostForm submits form fields with a real POST request and returns the
// response body as text. Used by sites whose listing pages are behind a
// form-driven pager.
func (c *Client) PostForm(ctx context.Context, url string, form map[string]string, forceProxy bool) (string, error) {
	return c.do(ctx, url, forceProxy, func(client *resty.Client) (*resty.Response, error) {
		return client.R().SetContext(ctx).SetFormData(form).Post(url)
	})
}

// PostText is named after the request it replaces, not the one it makes: it
// issues a GET carrying the form fields as query parameters. Some sites were
// onboarded against this behavior and still depend on it, so it is kept
// as-is rather than fixed.
func (c *Client) PostText(ctx context.Context, url string, params map[string]string, forceProxy bool) (string, error) {
	return c.do(ctx, url, forceProxy, func(client *resty.Client) (*resty.Response, error) {
		return client.R().SetContext(ctx).SetQueryParams(params).Get(url)
	})
}

func (c *Client) do(ctx context.Context, url string, forceProxy bool, send func(*resty.Client) (*resty.Response, error)) (string, error) {
	if forceProxy {
		if c.proxy == nil {
			return "", &Error{URL: url, ViaProxy: true, Err: fmt.Errorf("proxy required but not enabled")}
		}
		return c.send(c.proxy, url, true, send)
	}

	text, err := c.send(c.direct, url, false, send)
	if err == nil {
		return text, nil
	}

	fetchErr, ok := err.(*Error)
	if !ok || !blocked(fetchErr) || c.proxy == nil {
		return "", err
	}

	slog.Info("Blocked response, retrying via proxy", "url", url, "status", fetchErr.StatusCode)
	return c.send(c.proxy, url, true, send)
}

func (c *Client) send(client *resty.Client, url string, viaProxy bool, send func(*resty.Client) (*resty.Response, error)) (string, error) {
	resp, err := send(client)
	if err != nil {
		return "", &Error{URL: url, ViaProxy: viaProxy, Err: err}
	}
	if resp.IsError() {
		return "", &Error{
			URL:        url,
			StatusCode: resp.StatusCode(),
			ViaProxy:   viaProxy,
			Err:        fmt.Errorf("HTTP error: %s", resp.Status()),
		}
	}
	return resp.String(), nil
}

// blocked reports whether a direct failure looks like anti-scraping defense:
// a connection-level error, or one of the statuses the sources serve from
// their front-end filters.
func blocked(e *Error) bool {
	if e.StatusCode == 0 {
		return true
	}
	switch e.StatusCode {
	case 403, 429, 503:
		return true
	}
	return false
}
