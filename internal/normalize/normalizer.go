// Package normalize turns raw chapter markup into the canonical Chapter
// value with its derived textual representations. The package does no I/O:
// given the same inputs it always produces the same content fields.
package normalize

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"golang.org/x/net/html"

	"novelbind/internal/book"
)

// containerSelectors locate the chapter body across the source's markup
// variants, tried in order.
var containerSelectors = []string{
	"div.chapter-inner",
	"div.chapter-content",
	"div#chapter-content",
	"div#chapterContent",
	"article#chapter-content",
}

const (
	firstParagraphStyle = "text-indent: 0; text-align: justify;"
	bodyParagraphStyle  = "text-indent: 1.5em; text-align: justify;"
)

// Normalize builds a Chapter from one fetched page. A missing content
// container is not an error: the result is a chapter with empty content
// fields, while Published may still be populated from the page head.
func Normalize(link book.ChapterLink, pageHTML []byte, now time.Time) book.Chapter {
	ch := book.Chapter{
		Number:     link.Number,
		Title:      book.CleanTitle(link.Title),
		URL:        link.URL,
		Downloaded: now.UTC(),
		Schema:     book.DefaultVersion(),
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return ch
	}

	ch.Published = extractPublished(doc)

	container := findContainer(doc)
	if container == nil {
		return ch
	}

	content := buildSection(ch.Title, container)
	if content == "" {
		return ch
	}

	ch.ContentHTML = content
	ch.PlainText = DerivePlainText(content)
	ch.Markdown = DeriveMarkdown(content)
	return ch
}

// extractPublished tries the structured metadata field, then the time
// element's datetime attribute, then the time element's visible text. The
// first value that parses wins; absence of all three is not an error.
func extractPublished(doc *goquery.Document) *time.Time {
	candidates := []string{
		doc.Find(`meta[property="article:published_time"]`).First().AttrOr("content", ""),
		doc.Find("time[datetime]").First().AttrOr("datetime", ""),
		strings.TrimSpace(doc.Find("time").First().Text()),
	}
	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		parsed, err := dateparse.ParseAny(raw)
		if err != nil {
			continue
		}
		utc := parsed.UTC()
		return &utc
	}
	return nil
}

func findContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range containerSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// buildSection constructs the cleaned section markup: presentation noise
// removed, empty paragraphs dropped, indentation styles applied, and a drop
// cap carved out of the opening paragraph.
func buildSection(title string, container *goquery.Selection) string {
	container.Find("img, script, style").Remove()

	var kept []*goquery.Selection
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if strings.TrimSpace(p.Text()) == "" {
			return
		}
		kept = append(kept, p)
	})
	if len(kept) == 0 {
		return ""
	}

	for i, p := range kept {
		if i == 0 {
			p.SetAttr("style", firstParagraphStyle)
			applyDropCap(p)
			continue
		}
		p.SetAttr("style", bodyParagraphStyle)
	}

	var sb strings.Builder
	sb.WriteString(`<section class="chapter">`)
	fmt.Fprintf(&sb, `<h2 class="chapter-title">%s</h2>`, html.EscapeString(title))
	for _, p := range kept {
		markup, err := goquery.OuterHtml(p)
		if err != nil {
			continue
		}
		sb.WriteString(markup)
	}
	sb.WriteString(`</section>`)
	return sb.String()
}

// applyDropCap isolates the first alphabetic rune of the paragraph into a
// styled span, leaving any preceding non-alphabetic text in place. Paragraphs
// without an alphabetic rune are left unmodified.
func applyDropCap(p *goquery.Selection) {
	if len(p.Nodes) == 0 {
		return
	}
	node := firstAlphabeticTextNode(p.Nodes[0])
	if node == nil {
		return
	}

	before, letter, after := splitAtFirstAlphabetic(node.Data)
	parent := node.Parent

	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, node)
	}
	span := &html.Node{
		Type: html.ElementNode,
		Data: "span",
		Attr: []html.Attribute{{Key: "class", Val: "drop-cap"}},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: letter})
	parent.InsertBefore(span, node)
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, node)
	}
	parent.RemoveChild(node)
}

// firstAlphabeticTextNode walks the subtree in document order and returns the
// first text node containing an alphabetic rune.
func firstAlphabeticTextNode(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		for _, r := range n.Data {
			if unicode.IsLetter(r) {
				return n
			}
		}
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := firstAlphabeticTextNode(child); found != nil {
			return found
		}
	}
	return nil
}

// splitAtFirstAlphabetic cuts s around its first alphabetic rune. The caller
// guarantees one exists.
func splitAtFirstAlphabetic(s string) (before, letter, after string) {
	for i, r := range s {
		if unicode.IsLetter(r) {
			return s[:i], string(r), s[i+len(string(r)):]
		}
	}
	return s, "", ""
}

// DeriveMarkdown converts the section markup to markdown. The conversion is
// mechanical; a converter failure degrades to the plain-text rendering so the
// all-or-nothing content invariant holds.
func DeriveMarkdown(contentHTML string) string {
	md, err := htmltomarkdown.ConvertString(contentHTML)
	if err != nil {
		return DerivePlainText(contentHTML)
	}
	return strings.TrimSpace(md)
}

// DerivePlainText renders the section markup as visible text with blank
// lines between block elements.
func DerivePlainText(contentHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return ""
	}
	var blocks []string
	doc.Find("h1, h2, h3, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		blocks = append(blocks, text)
	})
	return strings.Join(blocks, "\n\n")
}
