package app

import (
	"context"

	"pressroom/api/internal/ranking"
)

type VoteInput struct {
	Value int `json:"value"`
}

// Vote records, flips, or retracts the caller's vote on an article and
// returns the resulting score. The value is validated before anything is
// looked up, so a bad payload is a 422 even when the article id is bogus.
func (s *Service) Vote(ctx context.Context, session Session, articleID int64, input VoteInput) (map[string]any, error) {
	if input.Value != ranking.Upvote && input.Value != ranking.Downvote {
		return nil, errValidation("value must be 1 or -1", map[string]any{"value": input.Value})
	}
	if !s.CanRank(session) {
		return nil, errForbidden()
	}
	if _, err := s.visibleArticle(ctx, session, articleID); err != nil {
		return nil, err
	}

	if err := s.store.CastVote(ctx, articleID, session.UserID, input.Value); err != nil {
		return nil, err
	}
	return s.voteView(ctx, session, articleID)
}

// ArticleScore returns the live score and, when authenticated, the caller's
// own vote.
func (s *Service) ArticleScore(ctx context.Context, session Session, articleID int64) (map[string]any, error) {
	if _, err := s.visibleArticle(ctx, session, articleID); err != nil {
		return nil, err
	}
	return s.voteView(ctx, session, articleID)
}

func (s *Service) voteView(ctx context.Context, session Session, articleID int64) (map[string]any, error) {
	score, err := s.store.ArticleScore(ctx, articleID)
	if err != nil {
		return nil, err
	}
	view := map[string]any{
		"articleId": articleID,
		"score":     score,
	}
	if session.Authenticated() {
		value, err := s.store.UserVote(ctx, articleID, session.UserID)
		if err != nil {
			return nil, err
		}
		view["userVote"] = value
		view["userState"] = ranking.StateOf(value).String()
	}
	return view, nil
}
