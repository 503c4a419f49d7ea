package export

import (
	"html"
	"strings"
)

// BodyToHTML converts plain article text to HTML. Blank lines separate
// paragraphs; single newlines inside a paragraph become <br> tags. All text
// is escaped before markup is added.
func BodyToHTML(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return ""
	}

	normalized := strings.ReplaceAll(trimmed, "\r\n", "\n")
	paragraphs := strings.Split(normalized, "\n\n")

	var b strings.Builder
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		lines := strings.Split(paragraph, "\n")
		escaped := make([]string, 0, len(lines))
		for _, line := range lines {
			escaped = append(escaped, html.EscapeString(strings.TrimSpace(line)))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(escaped, "<br>"))
		b.WriteString("</p>\n")
	}
	return strings.TrimSpace(b.String())
}
