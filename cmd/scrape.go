package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"novelbind/internal/discover"
	"novelbind/internal/fetch"
	"novelbind/internal/persist"
	"novelbind/internal/scrape"
)

// newScrapeCmd creates and configures the 'scrape' subcommand. It drives the
// full acquisition pipeline: discovery, concurrent fetch and normalization,
// and persistence of every result.
func newScrapeCmd() *cobra.Command {
	var (
		bindAfter bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Discovers and acquires new chapters",
		Long: `Reads the fiction's index page, finds every chapter above the configured
lower bound, fetches and normalizes each one with a bounded worker pool, and
records the results to disk and to the chapter store. With --bind the run
finishes by packaging the acquired chapters into an EPUB.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrapeCommand(cmd, bindAfter, workers)
		},
	}
	cmd.Flags().BoolVar(&bindAfter, "bind", false, "package the acquired chapters into an EPUB afterwards")
	cmd.Flags().IntVar(&workers, "workers", 0, fmt.Sprintf("worker pool size (overrides %s)", scrape.WorkersEnv))
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, bindAfter bool, workers int) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := a.cfg

	fetcher := fetch.New(fetch.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.Timeout(),
	})

	disc := discover.New(discover.Config{
		IndexURL:   cfg.Source.IndexURL,
		BaseURL:    cfg.Source.BaseURL,
		MinChapter: cfg.Source.MinChapter,
		CachePath:  cfg.Source.CachePath,
		CacheTTL:   cfg.Source.CacheTTL(),
	}, fetcher, a.clock, a.logger)

	links, err := disc.Discover(cmd.Context())
	if err != nil {
		return fmt.Errorf("discover chapters: %w", err)
	}
	if len(links) == 0 {
		a.logger.Info("no chapters above the lower bound; nothing to do")
		return nil
	}

	files, err := persist.NewFiles(cfg.Output.Dir, a.logger)
	if err != nil {
		return fmt.Errorf("init file sink: %w", err)
	}
	sink := persist.NewSink(files, a.store, a.logger)

	if workers == 0 {
		workers = cfg.Crawler.Workers
	}
	scheduler := scrape.New(scrape.Config{
		Workers: workers,
		Delay:   cfg.Crawler.Delay(),
	}, fetcher, sink, a.clock, a.logger)

	chapters := scheduler.Run(cmd.Context(), links)
	a.logger.Info("scrape finished",
		zap.Int("chapters", len(chapters)),
	)

	if bindAfter {
		return assembleVolume(a, chapters)
	}
	return nil
}
