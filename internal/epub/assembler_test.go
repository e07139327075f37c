package epub

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"novelbind/internal/book"
)

func sampleChapters() []book.Chapter {
	now := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	return []book.Chapter{
		{
			Number:      1000,
			Title:       "The Hunt Begins",
			ContentHTML: `<section class="chapter"><h2 class="chapter-title">The Hunt Begins</h2><p>First.</p></section>`,
			Downloaded:  now,
			Schema:      book.DefaultVersion(),
		},
		book.Placeholder(book.ChapterLink{Number: 1001, Title: "Missing"}, now),
		{
			Number:      1002,
			Title:       "Aftermath",
			ContentHTML: `<section class="chapter"><h2 class="chapter-title">Aftermath</h2><p>Third.</p></section>`,
			Downloaded:  now,
			Schema:      book.DefaultVersion(),
		},
	}
}

func zipEntryNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestAssembleWritesVolume(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "book.epub")
	a := New(Config{
		Title:      "The Primal Hunter",
		Author:     "Zogarth",
		OutputPath: out,
	}, zap.NewNop())

	require.NoError(t, a.Assemble(sampleChapters()))

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	names := zipEntryNames(t, out)
	require.Contains(t, names, "mimetype")
	joined := ""
	for _, n := range names {
		joined += n + "\n"
	}
	require.Contains(t, joined, "chapter-1000.xhtml")
	require.Contains(t, joined, "chapter-1001.xhtml", "placeholders still get a section")
	require.Contains(t, joined, "chapter-1002.xhtml")
}

func TestAssembleNoChaptersWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.epub")
	a := New(Config{Title: "Empty", OutputPath: out}, zap.NewNop())

	require.ErrorIs(t, a.Assemble(nil), ErrNoChapters)

	_, err := os.Stat(out)
	require.True(t, os.IsNotExist(err), "no file may be created for an empty set")
}

func TestAssembleMissingAssetsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "book.epub")
	a := New(Config{
		Title:      "The Primal Hunter",
		Author:     "Zogarth",
		CSSPath:    filepath.Join(dir, "no-such.css"),
		CoverPath:  filepath.Join(dir, "no-such.jpg"),
		OutputPath: out,
	}, zap.NewNop())

	require.NoError(t, a.Assemble(sampleChapters()))
	_, err := os.Stat(out)
	require.NoError(t, err)
}

func TestAssembleWithStylesheet(t *testing.T) {
	dir := t.TempDir()
	css := filepath.Join(dir, "epub.css")
	require.NoError(t, os.WriteFile(css, []byte("p { text-align: justify; }\n"), 0o644))
	out := filepath.Join(dir, "book.epub")
	a := New(Config{
		Title:      "The Primal Hunter",
		CSSPath:    css,
		OutputPath: out,
	}, zap.NewNop())

	require.NoError(t, a.Assemble(sampleChapters()))
	joined := ""
	for _, n := range zipEntryNames(t, out) {
		joined += n + "\n"
	}
	require.Contains(t, joined, "epub.css")
}

func TestDisplayTitleFallsBackToNumber(t *testing.T) {
	require.Equal(t, "Chapter 7", displayTitle(book.Chapter{Number: 7}))
	require.Equal(t, "Named", displayTitle(book.Chapter{Number: 7, Title: "Named"}))
}
