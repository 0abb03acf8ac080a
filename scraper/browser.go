package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome. It is slower than HTTPFetcher
// but gets past pages that only serve markup to a real browser.
type BrowserFetcher struct {
	timeout       time.Duration
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	browserCtx    context.Context
}

// NewBrowserFetcher starts a headless browser. Call Close when done.
func NewBrowserFetcher(chromeBin string, timeout time.Duration) (*BrowserFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserFetcher{
		timeout:       timeout,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		browserCtx:    browserCtx,
	}, nil
}

// Fetch implements Fetcher. Each call runs in its own tab.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	extra := network.Headers{}
	userAgent := ""
	for k, v := range headers {
		if textproto.CanonicalMIMEHeaderKey(k) == "User-Agent" {
			userAgent = v
			continue
		}
		extra[k] = v
	}

	setup := chromedp.ActionFunc(func(ctx context.Context) error {
		if userAgent != "" {
			if err := emulation.SetUserAgentOverride(userAgent).Do(ctx); err != nil {
				return err
			}
		}
		if len(extra) > 0 {
			if err := network.Enable().Do(ctx); err != nil {
				return err
			}
			return network.SetExtraHTTPHeaders(extra).Do(ctx)
		}
		return nil
	})
	if err := chromedp.Run(tabCtx, setup); err != nil {
		return 0, nil, &TransportError{URL: url, Err: err}
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, nil, &TransportError{URL: url, Err: err}
	}
	status, err := responseStatus(url, resp)
	if err != nil {
		return 0, nil, err
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return status, nil, nil
	}
	return status, []byte(html), nil
}

// errNoDocument is returned when navigation produced no document response.
var errNoDocument = errors.New("navigation returned no document response")

func responseStatus(url string, resp *network.Response) (int, error) {
	if resp == nil {
		return 0, &TransportError{URL: url, Err: errNoDocument}
	}
	return int(resp.Status), nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() error {
	b.cancelBrowser()
	b.cancelAlloc()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
