package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pressroom/api/internal/export"
	"pressroom/api/internal/gitrepo"
	"pressroom/api/internal/search"
	"pressroom/api/internal/store"
)

type ArticleInput struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ImageKey    string `json:"imageKey"`
	IsPublished bool   `json:"isPublished"`
}

// ListArticles returns published articles. scope widens the view: "mine"
// lists the caller's own articles in any state, "all" lists everything and
// is reserved for administrators.
func (s *Service) ListArticles(ctx context.Context, session Session, scope string) ([]map[string]any, error) {
	var (
		articles []store.Article
		err      error
	)
	switch scope {
	case "", "published":
		articles, err = s.store.ListPublishedArticles(ctx)
	case "mine":
		if !session.Authenticated() {
			return nil, errForbidden()
		}
		articles, err = s.store.ListArticlesByAuthor(ctx, session.UserID)
	case "all":
		if !s.CanAdminister(session) {
			return nil, errForbidden()
		}
		articles, err = s.store.ListAllArticles(ctx)
	default:
		return nil, errValidation("scope must be published, mine, or all", nil)
	}
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(articles))
	for _, article := range articles {
		score, err := s.store.ArticleScore(ctx, article.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, articleView(article, score))
	}
	return items, nil
}

// GetArticle returns one article. Unpublished articles are visible only to
// their author and administrators; everyone else sees a 404 rather than a
// confirmation that the article exists.
func (s *Service) GetArticle(ctx context.Context, session Session, articleID int64) (map[string]any, error) {
	article, err := s.visibleArticle(ctx, session, articleID)
	if err != nil {
		return nil, err
	}
	score, err := s.store.ArticleScore(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	return articleView(article, score), nil
}

func (s *Service) CreateArticle(ctx context.Context, session Session, input ArticleInput) (map[string]any, error) {
	if !s.CanAuthor(session) {
		return nil, errForbidden()
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errValidation("title is required", nil)
	}

	now := time.Now().UTC()
	article := store.Article{
		Title:       title,
		Body:        input.Body,
		ImageKey:    strings.TrimSpace(input.ImageKey),
		IsPublished: input.IsPublished,
		AuthorID:    session.UserID,
		AuthorName:  session.UserName,
		PublishedAt: now,
		UpdatedAt:   now,
	}

	articleID, err := s.store.InsertArticle(ctx, article)
	if err != nil {
		return nil, err
	}
	article.ID = articleID

	if err := s.git.EnsureArticleRepo(articleID, contentOf(article), session.UserName); err != nil {
		return nil, fmt.Errorf("archive article %d: %w", articleID, err)
	}

	s.indexArticle(article)

	return articleView(article, 0), nil
}

func (s *Service) UpdateArticle(ctx context.Context, session Session, articleID int64, input ArticleInput) (map[string]any, error) {
	existing, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !s.CanModifyArticle(session, existing) {
		return nil, errForbidden()
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errValidation("title is required", nil)
	}

	updated := existing
	updated.Title = title
	updated.Body = input.Body
	updated.ImageKey = strings.TrimSpace(input.ImageKey)
	updated.IsPublished = input.IsPublished

	if err := s.store.UpdateArticle(ctx, updated); err != nil {
		return nil, err
	}

	// The old image is removed only now, after the row change committed,
	// and only when the update stopped referencing it.
	if existing.ImageKey != "" && existing.ImageKey != updated.ImageKey {
		s.removeImage(ctx, existing.ImageKey)
	}

	if _, err := s.git.CommitContent(articleID, contentOf(updated), session.UserName, "Update article"); err != nil {
		return nil, fmt.Errorf("archive article %d: %w", articleID, err)
	}

	s.indexArticle(updated)

	score, err := s.store.ArticleScore(ctx, articleID)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()
	return articleView(updated, score), nil
}

func (s *Service) DeleteArticle(ctx context.Context, session Session, articleID int64) error {
	existing, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return err
	}
	if !s.CanModifyArticle(session, existing) {
		return errForbidden()
	}

	if err := s.store.DeleteArticle(ctx, articleID); err != nil {
		return err
	}

	// Row is gone, comments and votes cascaded; clean up the satellites.
	if existing.ImageKey != "" {
		s.removeImage(ctx, existing.ImageKey)
	}
	if err := s.git.RemoveArticleRepo(articleID); err != nil {
		return fmt.Errorf("remove archive %d: %w", articleID, err)
	}
	if s.search != nil {
		s.search.DeleteArticle(strconv.FormatInt(articleID, 10))
	}
	return nil
}

// ArticleHistory lists the archived revisions of an article.
func (s *Service) ArticleHistory(ctx context.Context, session Session, articleID int64, limit int) (map[string]any, error) {
	article, err := s.visibleArticle(ctx, session, articleID)
	if err != nil {
		return nil, err
	}
	commits, err := s.git.History(articleID, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"articleId": article.ID,
		"commits":   commits,
	}, nil
}

// ArticleRevision returns the archived content at a specific commit.
func (s *Service) ArticleRevision(ctx context.Context, session Session, articleID int64, hash string) (map[string]any, error) {
	article, err := s.visibleArticle(ctx, session, articleID)
	if err != nil {
		return nil, err
	}
	content, err := s.git.GetContentByHash(articleID, hash)
	if err != nil {
		return nil, errNotFound("Revision not found")
	}
	return map[string]any{
		"articleId": article.ID,
		"hash":      hash,
		"title":     content.Title,
		"body":      content.Body,
		"imageKey":  content.ImageKey,
	}, nil
}

// ExportArticle renders an article to a downloadable file.
func (s *Service) ExportArticle(ctx context.Context, session Session, articleID int64, format string, includeComments bool) (*export.Result, error) {
	if _, err := s.visibleArticle(ctx, session, articleID); err != nil {
		return nil, err
	}
	f := export.Format(format)
	if f != export.FormatHTML && f != export.FormatPDF {
		return nil, errValidation("format must be 'html' or 'pdf'", nil)
	}
	return s.exporter.Export(ctx, export.Request{
		ArticleID:       articleID,
		Format:          f,
		IncludeComments: includeComments,
	})
}

// visibleArticle loads an article if the caller may read it. Missing and
// hidden articles are indistinguishable to the caller.
func (s *Service) visibleArticle(ctx context.Context, session Session, articleID int64) (store.Article, error) {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Article{}, errNotFound("Article not found")
		}
		return store.Article{}, err
	}
	if !article.IsPublished && !s.CanModifyArticle(session, article) {
		return store.Article{}, errNotFound("Article not found")
	}
	return article, nil
}

func (s *Service) indexArticle(article store.Article) {
	if s.search == nil {
		return
	}
	s.search.IndexArticle(search.ArticleRecord{
		ID:         strconv.FormatInt(article.ID, 10),
		Title:      article.Title,
		Body:       article.Body,
		AuthorName: article.AuthorName,
		Published:  article.IsPublished,
	})
}

func contentOf(article store.Article) gitrepo.Content {
	return gitrepo.Content{
		Title:    article.Title,
		Body:     article.Body,
		ImageKey: article.ImageKey,
	}
}

func articleView(article store.Article, score int) map[string]any {
	return map[string]any{
		"id":          article.ID,
		"title":       article.Title,
		"body":        article.Body,
		"imageKey":    article.ImageKey,
		"isPublished": article.IsPublished,
		"authorId":    article.AuthorID,
		"authorName":  article.AuthorName,
		"publishedAt": article.PublishedAt,
		"updatedAt":   article.UpdatedAt,
		"score":       score,
	}
}
