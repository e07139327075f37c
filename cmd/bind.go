package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"novelbind/internal/book"
	"novelbind/internal/epub"
	"novelbind/internal/persist"
)

// newBindCmd creates and configures the 'bind' subcommand, which packages
// already-persisted chapters into an EPUB without touching the network.
func newBindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bind",
		Short: "Packages persisted chapters into an EPUB",
		Long: `Collects every chapter already recorded by previous scrape runs, preferring
the chapter store and falling back to the on-disk files when the store is
unreachable, and packages them into a single EPUB volume.`,

		RunE: runBindCommand,
	}
}

func runBindCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	chapters, err := loadChapters(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("load chapters: %w", err)
	}
	return assembleVolume(a, chapters)
}

// loadChapters reads the persisted chapter set, store first, files second.
func loadChapters(ctx context.Context, a *app) ([]book.Chapter, error) {
	if a.store.Available() {
		chapters, err := a.store.List(ctx)
		if err == nil {
			return chapters, nil
		}
		a.logger.Warn("store read failed; falling back to files", zap.Error(err))
	}

	files, err := persist.NewFiles(a.cfg.Output.Dir, a.logger)
	if err != nil {
		return nil, err
	}
	return files.Load()
}

// assembleVolume packages the chapters using the configured output settings.
// An empty chapter set is reported and produces no file.
func assembleVolume(a *app, chapters []book.Chapter) error {
	assembler := epub.New(epub.Config{
		Title:      a.cfg.Output.BookTitle,
		Author:     a.cfg.Output.Author,
		CSSPath:    a.cfg.Output.CSSPath,
		CoverPath:  a.cfg.Output.CoverPath,
		OutputPath: a.cfg.Output.EpubPath,
	}, a.logger)

	if err := assembler.Assemble(chapters); err != nil {
		if errors.Is(err, epub.ErrNoChapters) {
			a.logger.Warn("no persisted chapters; no epub written")
			return nil
		}
		return err
	}
	return nil
}
