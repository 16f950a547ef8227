// Package sanitize reduces user-submitted free text to plain text before it is stored.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// Cleaner strips markup from free-text form fields
type Cleaner struct {
	// Tags removed together with their content
	removeTags []string
	// Tags that end a line of text
	blockTags []string
}

// NewCleaner creates a cleaner with the default tag lists
func NewCleaner() *Cleaner {
	return &Cleaner{
		removeTags: []string{
			"script", "style", "noscript", "iframe", "object", "embed",
			"applet", "svg", "template", "head", "meta", "link", "title", "base",
		},
		blockTags: []string{
			"p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre",
		},
	}
}

// Text returns s with markup removed and whitespace tidied. Input without markup
// is only whitespace-normalised.
func (c *Cleaner) Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.ContainsAny(s, "<&") {
		return tidy(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return tidy(s)
	}

	for _, tag := range c.removeTags {
		doc.Find(tag).Remove()
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(strings.Join(c.blockTags, ",")).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	return tidy(doc.Find("body").Text())
}

// Strings cleans each field in place
func (c *Cleaner) Strings(fields ...*string) {
	for _, f := range fields {
		*f = c.Text(*f)
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
