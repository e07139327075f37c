package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"novelbind/internal/book"
)

var testLink = book.ChapterLink{
	Number: 986,
	URL:    "https://example.org/chapter/986",
	Title:  "A False God",
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const chapterPage = `<html>
<head><meta property="article:published_time" content="2026-02-27T08:30:00Z"></head>
<body>
<div class="chapter-inner">
  <img src="banner.png">
  <script>track();</script>
  <style>.x{}</style>
  <p>...the hunter walked into the <em>dark</em>.</p>
  <p>   </p>
  <p>The second paragraph.</p>
</div>
</body></html>`

func TestNormalizePopulatesAllContentFields(t *testing.T) {
	t.Parallel()

	ch := Normalize(testLink, []byte(chapterPage), testNow)

	require.False(t, ch.IsPlaceholder())
	require.Equal(t, 986, ch.Number)
	require.Equal(t, "A False God", ch.Title)
	require.Equal(t, testNow, ch.Downloaded)

	require.NotNil(t, ch.Published)
	require.True(t, ch.Published.Equal(time.Date(2026, 2, 27, 8, 30, 0, 0, time.UTC)))

	require.Contains(t, ch.ContentHTML, `<section class="chapter">`)
	require.Contains(t, ch.ContentHTML, `<h2 class="chapter-title">A False God</h2>`)
	require.NotContains(t, ch.ContentHTML, "<img")
	require.NotContains(t, ch.ContentHTML, "<script")
	require.NotContains(t, ch.ContentHTML, "<style")

	require.NotEmpty(t, ch.Markdown)
	require.Contains(t, ch.PlainText, "The second paragraph.")
}

func TestNormalizeDropCapSkipsLeadingNonAlphabetic(t *testing.T) {
	t.Parallel()

	ch := Normalize(testLink, []byte(chapterPage), testNow)

	require.Contains(t, ch.ContentHTML, `...<span class="drop-cap">t</span>he hunter walked`)
}

func TestNormalizeParagraphStyles(t *testing.T) {
	t.Parallel()

	ch := Normalize(testLink, []byte(chapterPage), testNow)

	require.Contains(t, ch.ContentHTML, `text-indent: 0`)
	require.Contains(t, ch.ContentHTML, `text-indent: 1.5em`)
	require.Equal(t, 2, strings.Count(ch.ContentHTML, "<p "), "the blank paragraph should have been dropped")
}

func TestNormalizeMissingContainerYieldsEmptyContent(t *testing.T) {
	t.Parallel()

	page := `<html><head><meta property="article:published_time" content="2026-02-27T08:30:00Z"></head>
<body><div class="sidebar"><p>not the chapter</p></div></body></html>`

	ch := Normalize(testLink, []byte(page), testNow)
	require.True(t, ch.IsPlaceholder())
	require.NotNil(t, ch.Published, "published can survive a missing container")
	require.Equal(t, testNow, ch.Downloaded)
}

func TestNormalizePublishedFallbackChain(t *testing.T) {
	t.Parallel()

	fromAttr := `<html><body><time datetime="2026-01-02T03:04:05Z">whenever</time>
<div class="chapter-content"><p>Body.</p></div></body></html>`
	ch := Normalize(testLink, []byte(fromAttr), testNow)
	require.NotNil(t, ch.Published)
	require.True(t, ch.Published.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	fromText := `<html><body><time>2026-01-02 03:04:05 UTC</time>
<div class="chapter-content"><p>Body.</p></div></body></html>`
	ch = Normalize(testLink, []byte(fromText), testNow)
	require.NotNil(t, ch.Published)

	none := `<html><body><div class="chapter-content"><p>Body.</p></div></body></html>`
	ch = Normalize(testLink, []byte(none), testNow)
	require.Nil(t, ch.Published)
	require.True(t, ch.EffectivePublished().Equal(testNow), "downloaded is the effective timestamp when published is absent")
}

func TestNormalizeNoAlphabeticFirstParagraph(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="chapter-inner"><p>12345 --- 678</p><p>Words here.</p></div></body></html>`
	ch := Normalize(testLink, []byte(page), testNow)

	require.NotContains(t, ch.ContentHTML, "drop-cap")
	require.Contains(t, ch.PlainText, "12345 --- 678")
}

func TestDerivationsAreDeterministic(t *testing.T) {
	t.Parallel()

	ch := Normalize(testLink, []byte(chapterPage), testNow)

	require.Equal(t, ch.Markdown, DeriveMarkdown(ch.ContentHTML))
	require.Equal(t, ch.PlainText, DerivePlainText(ch.ContentHTML))
	require.Equal(t, DeriveMarkdown(ch.ContentHTML), DeriveMarkdown(ch.ContentHTML))
	require.Equal(t, DerivePlainText(ch.ContentHTML), DerivePlainText(ch.ContentHTML))
}

func TestSplitAtFirstAlphabetic(t *testing.T) {
	t.Parallel()

	before, letter, after := splitAtFirstAlphabetic("...the hunter walked")
	require.Equal(t, "...", before)
	require.Equal(t, "t", letter)
	require.Equal(t, "he hunter walked", after)
}
