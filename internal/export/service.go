package export

import (
	"context"
	"fmt"
	"html/template"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetArticleForExport(ctx context.Context, articleID int64) (ArticleInfo, error)
	ListCommentsForExport(ctx context.Context, articleID int64) ([]CommentInfo, error)
}

// Service provides article export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	article, err := s.store.GetArticleForExport(ctx, req.ArticleID)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	data := TemplateData{
		Title:       article.Title,
		BodyHTML:    template.HTML(BodyToHTML(article.Body)),
		Author:      article.AuthorName,
		PublishedAt: article.PublishedAt,
		Score:       article.Score,
		Comments:    []TemplateComment{},
	}

	if req.IncludeComments {
		comments, err := s.store.ListCommentsForExport(ctx, req.ArticleID)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		for _, c := range comments {
			data.Comments = append(data.Comments, TemplateComment{
				Author:    c.Author,
				Body:      c.Body,
				CreatedAt: c.CreatedAt,
			})
		}
	}

	html, err := RenderArticleHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(article.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(html, article.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
