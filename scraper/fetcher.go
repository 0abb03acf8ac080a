package scraper

import (
	"context"
	"fmt"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// Fetcher issues one GET. A non-2xx status is returned as data; only transport
// failures (DNS, connect, timeout, cancellation) come back as a *TransportError.
// Fetchers never retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (int, []byte, error)
}

// TransportError wraps a failure that produced no HTTP response at all.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPFetcher fetches pages with a plain HTTP client.
type HTTPFetcher struct {
	client *resty.Client
}

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	Timeout          time.Duration
	CloudflareBypass bool
}

// NewHTTPFetcher creates a resty-backed fetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	res, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return 0, nil, &TransportError{URL: url, Err: err}
	}
	return res.StatusCode(), res.Body(), nil
}
