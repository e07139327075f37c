// Package scrape drives the bounded-concurrency acquisition of chapters.
package scrape

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"novelbind/internal/book"
	"novelbind/internal/clock"
	"novelbind/internal/fetch"
	"novelbind/internal/metrics"
	"novelbind/internal/normalize"
)

// PageFetcher is the single-page retrieval dependency.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Persister records one chapter durably. Failures are the persister's
// responsibility; the scheduler never aborts on them.
type Persister interface {
	Persist(ctx context.Context, ch book.Chapter)
}

// Config controls scheduling behavior.
type Config struct {
	Workers int           // explicit override; 0 resolves from env, then default
	Delay   time.Duration // minimum delay between consecutive completions
}

// result carries one worker's outcome back to the collector.
type result struct {
	link    book.ChapterLink
	chapter book.Chapter
	err     error
}

// Scheduler fans the discovered link set out over a fixed worker pool,
// persists each result as it completes, and re-establishes identity order
// on the way out.
type Scheduler struct {
	cfg     Config
	fetcher PageFetcher
	sink    Persister
	clock   clock.Clock
	pacer   pacer
	logger  *zap.Logger
}

// New builds a Scheduler.
func New(cfg Config, fetcher PageFetcher, sink Persister, clk clock.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		fetcher: fetcher,
		sink:    sink,
		clock:   clk,
		pacer:   timerPacer{},
		logger:  logger,
	}
}

// Run acquires every link and returns the chapters sorted ascending by
// number. A failed fetch yields a placeholder for that identity; it never
// aborts the batch. Each result is persisted as soon as it completes, then
// the politeness delay is applied before the next completion is processed.
func (s *Scheduler) Run(ctx context.Context, links []book.ChapterLink) []book.Chapter {
	if len(links) == 0 {
		return nil
	}

	workers := ResolveWorkers(s.cfg.Workers, s.logger)
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))
	log.Info("starting acquisition",
		zap.Int("links", len(links)),
		zap.Int("workers", workers),
		zap.Duration("delay", s.cfg.Delay),
	)

	jobs := make(chan book.ChapterLink, len(links))
	results := make(chan result, len(links))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range jobs {
				ch, err := s.acquire(ctx, link)
				results <- result{link: link, chapter: ch, err: err}
			}
		}()
	}

	for _, link := range links {
		jobs <- link
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	chapters := make([]book.Chapter, 0, len(links))
	for res := range results {
		chapters = append(chapters, s.record(ctx, log, res))
		s.pacer.Pause(ctx, s.cfg.Delay)
	}

	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	log.Info("acquisition finished", zap.Int("chapters", len(chapters)))
	return chapters
}

// record turns one completion into a chapter (substituting a placeholder on
// failure) and hands it to the sink before the next completion is processed.
func (s *Scheduler) record(ctx context.Context, log *zap.Logger, res result) book.Chapter {
	ch := res.chapter
	if res.err != nil {
		metrics.TotalPlaceholders.Inc()
		ch = book.Placeholder(res.link, s.clock.Now())
		log.Warn("fetch failed; recording placeholder",
			zap.Int("chapter", res.link.Number),
			zap.String("url", res.link.URL),
			zap.Error(res.err),
		)
	} else {
		metrics.TotalChapters.Inc()
		log.Debug("chapter acquired",
			zap.Int("chapter", ch.Number),
			zap.String("title", ch.Title),
		)
	}

	s.sink.Persist(ctx, ch)
	return ch
}

// acquire performs the fetch+normalize pipeline for one link.
func (s *Scheduler) acquire(ctx context.Context, link book.ChapterLink) (book.Chapter, error) {
	resp, err := s.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return book.Chapter{}, err
	}
	return normalize.Normalize(link, resp.Body, s.clock.Now()), nil
}
