// Package book defines the core chapter types shared across the pipeline.
package book

import (
	"fmt"
	"time"
)

// Version is the persisted record schema version, carried for
// forward-compatible evolution of stored chapters.
type Version struct {
	Major int `bson:"major" json:"major"`
	Minor int `bson:"minor" json:"minor"`
	Patch int `bson:"patch" json:"patch"`
}

// DefaultVersion is stamped on every chapter produced by this pipeline.
func DefaultVersion() Version {
	return Version{Major: 0, Minor: 0, Patch: 1}
}

// String renders the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ChapterLink is one discovered table-of-contents entry. Links are produced
// only by the discoverer, ordered ascending by Number, and consumed once by
// the scheduler.
type ChapterLink struct {
	Number int
	URL    string
	Title  string
}

// Chapter is the canonical normalized unit. Instances are immutable after
// construction; the content fields are either all populated or, for a
// placeholder, all empty.
type Chapter struct {
	Number      int        `bson:"chapter" json:"chapter"`
	Title       string     `bson:"title" json:"title"`
	URL         string     `bson:"url" json:"url"`
	ContentHTML string     `bson:"content_html" json:"content_html"`
	Markdown    string     `bson:"markdown" json:"markdown"`
	PlainText   string     `bson:"plain_text" json:"plain_text"`
	Published   *time.Time `bson:"published,omitempty" json:"published,omitempty"`
	Downloaded  time.Time  `bson:"downloaded" json:"downloaded"`
	Schema      Version    `bson:"schema" json:"schema"`
}

// Placeholder builds the empty-content stand-in recorded when acquisition
// fails for one identity, keeping the batch complete.
func Placeholder(link ChapterLink, now time.Time) Chapter {
	return Chapter{
		Number:     link.Number,
		Title:      CleanTitle(link.Title),
		URL:        link.URL,
		Downloaded: now.UTC(),
		Schema:     DefaultVersion(),
	}
}

// IsPlaceholder reports whether the chapter carries no extracted content.
func (c Chapter) IsPlaceholder() bool {
	return c.ContentHTML == "" && c.Markdown == "" && c.PlainText == ""
}

// EffectivePublished returns the publication timestamp, falling back to the
// download timestamp when the source page carried none.
func (c Chapter) EffectivePublished() time.Time {
	if c.Published != nil {
		return c.Published.UTC()
	}
	return c.Downloaded.UTC()
}
