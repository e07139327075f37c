// Package epub packages an ordered chapter set into a single EPUB volume.
package epub

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	goepub "github.com/go-shiori/go-epub"
	"go.uber.org/zap"

	"novelbind/internal/book"
)

// ErrNoChapters is returned when there is nothing to package. No output file
// is created in that case.
var ErrNoChapters = errors.New("epub: no chapters to package")

// Config describes the volume to produce. CSSPath and CoverPath are
// optional; a missing file is reported and skipped, never fatal.
type Config struct {
	Title      string
	Author     string
	CSSPath    string
	CoverPath  string
	OutputPath string
}

// Assembler builds EPUB files from normalized chapters.
type Assembler struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an Assembler.
func New(cfg Config, logger *zap.Logger) *Assembler {
	return &Assembler{cfg: cfg, logger: logger}
}

// Assemble writes one EPUB containing a title page followed by every
// chapter in the order given. Placeholder chapters appear as visibly empty
// sections so gaps in the source are not silently hidden.
func (a *Assembler) Assemble(chapters []book.Chapter) error {
	if len(chapters) == 0 {
		return ErrNoChapters
	}

	vol, err := goepub.NewEpub(a.cfg.Title)
	if err != nil {
		return fmt.Errorf("creating epub: %w", err)
	}
	vol.SetAuthor(a.cfg.Author)

	cssInternal := a.attachCSS(vol)
	a.attachCover(vol)

	if _, err := vol.AddSection(a.titlePage(), a.cfg.Title, "title-page.xhtml", cssInternal); err != nil {
		return fmt.Errorf("adding title page: %w", err)
	}

	for _, ch := range chapters {
		name := fmt.Sprintf("chapter-%04d.xhtml", ch.Number)
		if _, err := vol.AddSection(a.sectionBody(ch), displayTitle(ch), name, cssInternal); err != nil {
			return fmt.Errorf("adding chapter %d: %w", ch.Number, err)
		}
	}

	if dir := filepath.Dir(a.cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := vol.Write(a.cfg.OutputPath); err != nil {
		return fmt.Errorf("writing epub: %w", err)
	}

	a.logger.Info("epub written",
		zap.String("path", a.cfg.OutputPath),
		zap.Int("chapters", len(chapters)),
	)
	return nil
}

// attachCSS registers the stylesheet if configured and present, returning
// the internal path to link from each section. An empty return means the
// sections carry no stylesheet link.
func (a *Assembler) attachCSS(vol *goepub.Epub) string {
	if a.cfg.CSSPath == "" {
		return ""
	}
	if _, err := os.Stat(a.cfg.CSSPath); err != nil {
		a.logger.Warn("stylesheet not found; continuing without it",
			zap.String("path", a.cfg.CSSPath),
			zap.Error(err),
		)
		return ""
	}
	internal, err := vol.AddCSS(a.cfg.CSSPath, "epub.css")
	if err != nil {
		a.logger.Warn("stylesheet could not be attached",
			zap.String("path", a.cfg.CSSPath),
			zap.Error(err),
		)
		return ""
	}
	return internal
}

// attachCover registers the cover image if configured and present.
func (a *Assembler) attachCover(vol *goepub.Epub) {
	if a.cfg.CoverPath == "" {
		return
	}
	if _, err := os.Stat(a.cfg.CoverPath); err != nil {
		a.logger.Warn("cover image not found; continuing without it",
			zap.String("path", a.cfg.CoverPath),
			zap.Error(err),
		)
		return
	}
	internal, err := vol.AddImage(a.cfg.CoverPath, "cover"+filepath.Ext(a.cfg.CoverPath))
	if err != nil {
		a.logger.Warn("cover image could not be attached",
			zap.String("path", a.cfg.CoverPath),
			zap.Error(err),
		)
		return
	}
	if err := vol.SetCover(internal, ""); err != nil {
		a.logger.Warn("cover could not be set", zap.Error(err))
	}
}

func (a *Assembler) titlePage() string {
	var b strings.Builder
	b.WriteString(`<section class="title-page">`)
	b.WriteString(`<h1>` + html.EscapeString(a.cfg.Title) + `</h1>`)
	if a.cfg.Author != "" {
		b.WriteString(`<p class="author">` + html.EscapeString(a.cfg.Author) + `</p>`)
	}
	b.WriteString(`</section>`)
	return b.String()
}

// sectionBody returns the chapter's normalized HTML, or a bare heading for
// a placeholder.
func (a *Assembler) sectionBody(ch book.Chapter) string {
	if !ch.IsPlaceholder() {
		return ch.ContentHTML
	}
	return `<section class="chapter"><h2 class="chapter-title">` +
		html.EscapeString(displayTitle(ch)) + `</h2></section>`
}

func displayTitle(ch book.Chapter) string {
	if ch.Title != "" {
		return ch.Title
	}
	return fmt.Sprintf("Chapter %d", ch.Number)
}
