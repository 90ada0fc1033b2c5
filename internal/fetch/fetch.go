// Package fetch implements the HTTP fetcher using gocolly, with bounded
// fixed-delay retries owned by this package.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/leadspider/spider/internal/clock/system"
	"github.com/leadspider/spider/internal/crawl"
)

// ErrNotHTML marks responses whose Content-Type is not HTML. They count as
// a clean miss and are never retried.
var ErrNotHTML = errors.New("response is not html")

// Config controls fetcher behavior.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Clock provides the interruptible sleep used between retry attempts.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Fetcher implements crawl.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	clock         Clock
	logger        *zap.Logger
	baseCollector *colly.Collector
}

// New builds a Fetcher. Zero config values fall back to a 5s timeout, two
// retries, and a 1s retry delay.
func New(cfg Config, clock Clock, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	// Retries revisit the same URL, so the collector must not dedupe.
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		clock:         clock,
		logger:        logger,
		baseCollector: c,
	}
}

// Fetch gets url, retrying transient failures with a fixed delay between
// attempts. Invalid URLs and non-HTML responses are abandoned immediately;
// a canceled context ends the loop. After retries are exhausted the last
// error is returned and the caller treats the URL as permanently dropped
// for the run.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*crawl.FetchResult, error) {
	parsed, err := neturl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", url, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	attempts := f.cfg.Retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch canceled: %w", err)
		}

		res, err := f.fetchOnce(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !f.retryable(ctx, err) {
			return nil, err
		}
		if attempt < attempts {
			totalRetries.Inc()
			f.logger.Debug("fetch retry",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if serr := f.clock.Sleep(ctx, f.cfg.RetryDelay); serr != nil {
				return nil, fmt.Errorf("fetch canceled: %w", serr)
			}
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", attempts, lastErr)
}

// retryable reports whether an attempt error is transient. Transport
// failures, HTTP error statuses, and per-request timeouts all retry;
// non-HTML responses and outer-context cancellation do not.
func (f *Fetcher) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, ErrNotHTML)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*crawl.FetchResult, error) {
	totalRequests.Inc()

	var (
		result   *crawl.FetchResult
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if !isHTML(contentType) {
			totalNonHTML.Inc()
			fetchErr = fmt.Errorf("%w: %q", ErrNotHTML, contentType)
			return
		}
		result = &crawl.FetchResult{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		totalRequestErrors.Inc()
		return nil, err
	}
	if result == nil {
		totalRequestErrors.Inc()
		return nil, errors.New("no response received")
	}
	return result, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

// isHTML matches the Content-Type header against HTML media types. An
// absent header is treated as non-HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
