package ingest

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	enMediaRe = regexp.MustCompile(`<en-media[^>]*hash="([^"]+)"[^>]*/>`)
	enTagRe   = regexp.MustCompile(`</?en-[^>]+>`)
)

// policy is the allow-list sanitizer applied to all imported markup. This is
// the XSS defense boundary: everything not explicitly permitted is stripped.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "strong", "em", "u", "s", "blockquote",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("class").OnElements("div", "span", "pre", "code")

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowDataURIImages()

	return p
}

// SanitizeENML converts raw ENML note content into safe HTML: the note
// wrapper is removed, <en-media> references are replaced by <img> tags
// pointing at the parsed resources (or dropped when the hash is unknown),
// any remaining export-format tags are stripped, and the result is run
// through the allow-list policy. Sanitizing already-sanitized content is a
// no-op.
func SanitizeENML(content string, resources map[string]string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "<en-note>", "")
	content = strings.ReplaceAll(content, "</en-note>", "")

	content = enMediaRe.ReplaceAllStringFunc(content, func(tag string) string {
		hash := enMediaRe.FindStringSubmatch(tag)[1]
		if src, ok := resources[hash]; ok {
			return `<img src="` + src + `" alt="Embedded image" />`
		}
		return ""
	})

	content = enTagRe.ReplaceAllString(content, "")

	return policy.Sanitize(content)
}
