package book

import (
	"regexp"
	"strings"
)

// Sources sometimes append a volume marker to the first chapter of a book,
// separated by a hyphen, en dash, or em dash. The marker list is literal:
// nothing beyond these variants is stripped.
var bookStartSuffix = regexp.MustCompile(`(?i)\s*[-\x{2013}\x{2014}]\s*start\s+of\s+book\s+\d+\s*$`)

const surroundingQuotes = "\"'“”‘’"

// CleanTitle normalizes a raw chapter title for display: trailing
// start-of-book markers are removed and surrounding quote characters
// (straight and typographic) are stripped.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = bookStartSuffix.ReplaceAllString(title, "")
	title = strings.Trim(title, surroundingQuotes)
	return strings.TrimSpace(title)
}
