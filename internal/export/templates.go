package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

// SafeHTML is a template function that marks a string as safe HTML
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

var articleTemplate = template.Must(template.New("article").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"safeHTML": SafeHTML,
}).Parse(articleTemplateHTML))

// TemplateData holds data for article template rendering
type TemplateData struct {
	Title       string
	BodyHTML    template.HTML
	Author      string
	PublishedAt time.Time
	Score       int
	Comments    []TemplateComment
}

// TemplateComment holds comment data for template
type TemplateComment struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// RenderArticleHTML renders the article template with provided data
func RenderArticleHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := articleTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const articleTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .comment { background: #f5f5f5; padding: 1rem; margin: 1rem 0; border-left: 3px solid #333; }
    .comment .byline { color: #666; font-size: 0.85em; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Author}} | {{.PublishedAt.Format "Jan 2, 2006"}} | score {{.Score}}</div>
  <div>{{.BodyHTML | safeHTML}}</div>
  {{if .Comments}}
  <h2>Comments</h2>
  {{range .Comments}}
  <div class="comment">
    <div class="byline">{{.Author}} | {{formatDate .CreatedAt "Jan 2, 2006"}}</div>
    <div>{{.Body}}</div>
  </div>
  {{end}}
  {{end}}
</body>
</html>`
