// Package content derives presentation fields from blog markdown.
package content

import (
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/folio/folio/internal/model"
)

// WordsPerMinute is the reading speed used for ReadTime.
const WordsPerMinute = 200

// maxTOCLevel is the deepest heading included in a table of contents.
const maxTOCLevel = 3

var (
	markdown = goldmark.New()
	strict   = bluemonday.StrictPolicy()
)

// ReadTime estimates minutes to read s, never less than one.
func ReadTime(s string) int {
	words := len(strings.Fields(s))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// TableOfContents lists the h1-h3 headings of a markdown document with
// unique anchor ids.
func TableOfContents(src string) []model.TOCEntry {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	entries := []model.TOCEntry{}
	seen := make(map[string]int)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level > maxTOCLevel {
			return ast.WalkSkipChildren, nil
		}

		label := strings.TrimSpace(nodeText(heading, source))
		if label == "" {
			return ast.WalkSkipChildren, nil
		}

		id := Slugify(label)
		if id == "" {
			id = "section"
		}
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = id + "-" + strconv.Itoa(n)
		} else {
			seen[id] = 1
		}

		entries = append(entries, model.TOCEntry{ID: id, Text: label, Level: heading.Level})
		return ast.WalkSkipChildren, nil
	})

	return entries
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		default:
			b.WriteString(nodeText(c, source))
		}
	}
	return b.String()
}

// Slugify lowercases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// PlainText strips markup from blog markdown for excerpts. Reader input
// is stored as submitted and never passed through here.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// NormalizeTags trims, lowercases and de-duplicates tags, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
