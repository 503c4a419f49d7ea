// Package export renders articles to HTML or PDF for offline reading.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Request contains parameters for an export operation
type Request struct {
	ArticleID       int64
	Format          Format
	IncludeComments bool
}

// ArticleInfo holds the article data needed for rendering.
type ArticleInfo struct {
	ID          int64
	Title       string
	Body        string
	AuthorName  string
	PublishedAt time.Time
	Score       int
}

// CommentInfo holds one comment for the discussion section.
type CommentInfo struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrContentUnavailable indicates article content could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
