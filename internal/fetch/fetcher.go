// Package fetch implements single-page retrieval using gocolly.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"novelbind/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Response is the raw result of fetching one page.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves pages through a shared Colly collector. Each Fetch clones
// the base collector, so concurrent calls do not share mutable state.
type Fetcher struct {
	cfg  Config
	base *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Fetcher{cfg: cfg, base: c}
}

// Fetch executes a single HTTP GET. Transport errors and non-success status
// codes are returned as errors; the caller decides how to degrade.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Response, error) {
	var (
		result   Response
		fetchErr error
	)
	start := time.Now()

	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	metrics.TotalRequests.Inc()

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		metrics.TotalRequestErrors.Inc()
		return Response{}, fmt.Errorf("fetch %s canceled: %w", url, ctx.Err())
	case err := <-done:
		if err != nil {
			metrics.TotalRequestErrors.Inc()
			return Response{}, fmt.Errorf("fetch %s: %w", url, err)
		}
		if fetchErr != nil {
			metrics.TotalRequestErrors.Inc()
			return Response{}, fmt.Errorf("fetch %s: %w", url, fetchErr)
		}
	}
	return result, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
