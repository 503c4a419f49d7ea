package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"pressroom/api/internal/search"
	"pressroom/api/internal/store"
)

type CommentInput struct {
	Content string `json:"content"`
}

func (s *Service) ListComments(ctx context.Context, session Session, articleID int64) ([]map[string]any, error) {
	if _, err := s.visibleArticle(ctx, session, articleID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListCommentsByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentView(comment))
	}
	return items, nil
}

func (s *Service) CreateComment(ctx context.Context, session Session, articleID int64, input CommentInput) (map[string]any, error) {
	if !s.CanComment(session) {
		return nil, errForbidden()
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errValidation("content is required", nil)
	}

	article, err := s.visibleArticle(ctx, session, articleID)
	if err != nil {
		return nil, err
	}

	comment := store.Comment{
		ArticleID:  articleID,
		AuthorID:   session.UserID,
		AuthorName: session.UserName,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	commentID, err := s.store.InsertComment(ctx, comment)
	if err != nil {
		return nil, err
	}
	comment.ID = commentID

	s.indexComment(comment, article.IsPublished)
	return commentView(comment), nil
}

// UpdateComment rewrites a comment's text. Only the comment's author may
// edit it; administrators can delete comments but not put words in other
// people's mouths.
func (s *Service) UpdateComment(ctx context.Context, session Session, commentID int64, input CommentInput) (map[string]any, error) {
	existing, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if session.UserID == "" || session.UserID != existing.AuthorID {
		return nil, errForbidden()
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errValidation("content is required", nil)
	}

	if err := s.store.UpdateComment(ctx, commentID, content); err != nil {
		return nil, err
	}
	updated := existing
	updated.Content = content
	now := time.Now().UTC()
	updated.UpdatedAt = &now

	article, err := s.store.GetArticle(ctx, existing.ArticleID)
	if err == nil {
		s.indexComment(updated, article.IsPublished)
	}
	return commentView(updated), nil
}

func (s *Service) DeleteComment(ctx context.Context, session Session, commentID int64) error {
	existing, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !s.CanModifyComment(session, existing) {
		return errForbidden()
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteComment(strconv.FormatInt(commentID, 10))
	}
	return nil
}

func (s *Service) indexComment(comment store.Comment, articlePublished bool) {
	if s.search == nil {
		return
	}
	s.search.IndexComment(search.CommentRecord{
		ID:         strconv.FormatInt(comment.ID, 10),
		Content:    comment.Content,
		ArticleID:  strconv.FormatInt(comment.ArticleID, 10),
		AuthorName: comment.AuthorName,
		Published:  articlePublished,
	})
}

func commentView(comment store.Comment) map[string]any {
	view := map[string]any{
		"id":         comment.ID,
		"articleId":  comment.ArticleID,
		"authorId":   comment.AuthorID,
		"authorName": comment.AuthorName,
		"content":    comment.Content,
		"createdAt":  comment.CreatedAt,
	}
	if comment.UpdatedAt != nil {
		view["updatedAt"] = *comment.UpdatedAt
	}
	return view
}
