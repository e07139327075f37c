// Package discover extracts the ordered chapter link set from the fiction's
// table-of-contents page.
package discover

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"novelbind/internal/book"
	"novelbind/internal/clock"
	"novelbind/internal/fetch"
)

// chapterPattern matches "Chapter <number>" in anchor text, optionally
// followed by a dash-separated title.
var chapterPattern = regexp.MustCompile(`(?i)chapter\s+(\d+)(?:\s*-\s*(.+))?`)

const chapterPathSegment = "/chapter/"

// PageFetcher is the single-page retrieval dependency.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Config controls discovery behavior.
type Config struct {
	IndexURL   string
	BaseURL    string
	MinChapter int
	CachePath  string        // optional on-disk cache for the index HTML
	CacheTTL   time.Duration // cache freshness window; <=0 disables caching
}

// Discoverer produces the ChapterLink sequence the scheduler consumes.
type Discoverer struct {
	cfg     Config
	fetcher PageFetcher
	clock   clock.Clock
	logger  *zap.Logger
}

// New builds a Discoverer.
func New(cfg Config, fetcher PageFetcher, clk clock.Clock, logger *zap.Logger) *Discoverer {
	return &Discoverer{cfg: cfg, fetcher: fetcher, clock: clk, logger: logger}
}

// Discover fetches the index page and returns chapter links with
// Number >= MinChapter, sorted ascending by Number. Any network or parse
// failure here is fatal to the run and is surfaced to the caller.
func (d *Discoverer) Discover(ctx context.Context) ([]book.ChapterLink, error) {
	html, err := d.indexHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover index: %w", err)
	}

	links, err := d.parseLinks(html)
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	filtered := links[:0]
	for _, link := range links {
		if link.Number >= d.cfg.MinChapter {
			filtered = append(filtered, link)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Number < filtered[j].Number })

	d.logger.Info("discovered chapter links",
		zap.Int("total", len(links)),
		zap.Int("kept", len(filtered)),
		zap.Int("min_chapter", d.cfg.MinChapter),
	)
	return filtered, nil
}

// indexHTML returns the TOC page body, preferring a fresh on-disk cache.
func (d *Discoverer) indexHTML(ctx context.Context) ([]byte, error) {
	if cached, ok := d.readCache(); ok {
		d.logger.Debug("using cached index page", zap.String("path", d.cfg.CachePath))
		return cached, nil
	}

	resp, err := d.fetcher.Fetch(ctx, d.cfg.IndexURL)
	if err != nil {
		return nil, err
	}
	d.writeCache(resp.Body)
	return resp.Body, nil
}

func (d *Discoverer) readCache() ([]byte, bool) {
	if d.cfg.CachePath == "" || d.cfg.CacheTTL <= 0 {
		return nil, false
	}
	info, err := os.Stat(d.cfg.CachePath)
	if err != nil {
		return nil, false
	}
	if d.clock.Now().Sub(info.ModTime()) >= d.cfg.CacheTTL {
		return nil, false
	}
	body, err := os.ReadFile(d.cfg.CachePath)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (d *Discoverer) writeCache(body []byte) {
	if d.cfg.CachePath == "" || d.cfg.CacheTTL <= 0 {
		return
	}
	if err := os.MkdirAll(filepath.Dir(d.cfg.CachePath), 0o750); err != nil {
		d.logger.Warn("create index cache dir failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(d.cfg.CachePath, body, 0o600); err != nil {
		d.logger.Warn("write index cache failed", zap.String("path", d.cfg.CachePath), zap.Error(err))
	}
}

func (d *Discoverer) parseLinks(html []byte) ([]book.ChapterLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(d.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", d.cfg.BaseURL, err)
	}

	var links []book.ChapterLink
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, chapterPathSegment) {
			return
		}
		text := strings.TrimSpace(sel.Text())
		m := chapterPattern.FindStringSubmatch(text)
		if m == nil {
			return
		}
		number, err := strconv.Atoi(m[1])
		if err != nil || number <= 0 {
			return
		}

		title := strings.TrimSpace(m[2])
		if title == "" {
			title = text
		}

		links = append(links, book.ChapterLink{
			Number: number,
			URL:    resolveHref(base, href),
			Title:  book.CleanTitle(title),
		})
	})
	return links, nil
}

func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
