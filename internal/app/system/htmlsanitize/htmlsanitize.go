// Package htmlsanitize cleans HTML from long-text section fields and strips
// markup from inbound contact messages. It uses bluemonday policies.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	proseOnce   sync.Once
	prosePolicy *bluemonday.Policy

	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// prose allows the markup an editor can paste into a long-text field:
// paragraphs, emphasis, lists, headings below the page title and links.
// Links may only use web, mail and phone schemes; external ones open in a
// new tab with rel="nofollow noopener".
func prose() *bluemonday.Policy {
	proseOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "s", "mark", "small", "sub", "sup",
			"ul", "ol", "li", "blockquote", "h3", "h4", "hr", "span")
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto", "tel")
		p.AllowRelativeURLs(true)
		p.RequireParseableURLs(true)
		p.RequireNoFollowOnFullyQualifiedLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		p.AllowElements("a")
		prosePolicy = p
	})
	return prosePolicy
}

// Sanitize removes everything the prose policy does not allow.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return prose().Sanitize(s)
}

// IsPlainText reports whether s carries no markup. Content typed into a
// plain textarea is stored this way.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

// PlainTextToHTML escapes text and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func PlainTextToHTML(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(template.HTMLEscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// PrepareForDisplay returns a long-text field as safe HTML for the section
// templates. Plain text is converted, markup is sanitized.
func PrepareForDisplay(content string) template.HTML {
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		return template.HTML(PlainTextToHTML(content))
	}
	return template.HTML(Sanitize(content))
}

// PlainText strips every tag and returns the remaining text, trimmed.
// Entities produced by the strict policy are unescaped again so the result
// is plain text suitable for storage and email bodies.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	strictOnce.Do(func() { strictPolicy = bluemonday.StrictPolicy() })
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
