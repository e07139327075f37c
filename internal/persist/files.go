// Package persist records normalized chapters durably: once as a file keyed
// by zero-padded chapter number, once as an upserted store record.
package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"novelbind/internal/book"
	"novelbind/internal/normalize"
)

var chapterFilePattern = regexp.MustCompile(`^(\d{4})\.html$`)

// Files writes one HTML file per chapter into a guaranteed-existing
// directory, overwriting any previous file for the same identity.
type Files struct {
	root   string
	logger *zap.Logger
}

// NewFiles returns a file sink rooted at dir, creating it if absent.
func NewFiles(root string, logger *zap.Logger) (*Files, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", root, err)
	}
	return &Files{root: root, logger: logger}, nil
}

// Path returns the file path for a chapter number: a 4-digit zero-padded
// name with an .html extension.
func (f *Files) Path(number int) string {
	return filepath.Join(f.root, fmt.Sprintf("%04d.html", number))
}

// Save writes the chapter's section markup to its file, replacing any
// earlier content for the same number.
func (f *Files) Save(ctx context.Context, ch book.Chapter) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	target := f.Path(ch.Number)
	if err := os.WriteFile(target, []byte(ch.ContentHTML), 0o600); err != nil {
		return fmt.Errorf("write chapter file %s: %w", target, err)
	}
	return nil
}

// Load reads every chapter file back into memory, sorted ascending by
// number. It lets the assembler run without the store.
func (f *Files) Load() ([]book.Chapter, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("read output dir %s: %w", f.root, err)
	}

	var chapters []book.Chapter
	for _, entry := range entries {
		m := chapterFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		body, err := os.ReadFile(filepath.Join(f.root, entry.Name()))
		if err != nil {
			f.logger.Warn("read chapter file failed", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		content := string(body)
		chapters = append(chapters, book.Chapter{
			Number:      number,
			Title:       sectionTitle(content, number),
			ContentHTML: content,
			Markdown:    normalize.DeriveMarkdown(content),
			PlainText:   normalize.DerivePlainText(content),
			Schema:      book.DefaultVersion(),
		})
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return chapters, nil
}

// sectionTitle recovers the chapter title from the persisted section heading.
func sectionTitle(content string, number int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Sprintf("Chapter %d", number)
	}
	title := strings.TrimSpace(doc.Find("h2.chapter-title").First().Text())
	if title == "" {
		return fmt.Sprintf("Chapter %d", number)
	}
	return title
}
