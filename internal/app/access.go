package app

import (
	"pressroom/api/internal/rbac"
	"pressroom/api/internal/store"
)

// CanRank reports whether the session may vote on articles.
func (s *Service) CanRank(session Session) bool {
	return rbac.CanPerform(session.Roles, rbac.RoleRanker)
}

// CanComment reports whether the session may add comments.
func (s *Service) CanComment(session Session) bool {
	return rbac.CanPerform(session.Roles, rbac.RoleCommenter)
}

// CanAuthor reports whether the session may create articles.
func (s *Service) CanAuthor(session Session) bool {
	return rbac.CanPerform(session.Roles, rbac.RoleAuthor)
}

// CanAdminister reports whether the session holds the administrator role.
func (s *Service) CanAdminister(session Session) bool {
	return rbac.HasAnyRole(session.Roles, rbac.RoleAdministrator)
}

// CanModifyArticle decides ownership-or-admin for a loaded article.
func (s *Service) CanModifyArticle(session Session, article store.Article) bool {
	return rbac.CanModify(session.UserID, article.AuthorID, session.Roles)
}

// CanModifyComment decides who may remove a loaded comment. Edits are
// stricter and stay author-only at the call site.
func (s *Service) CanModifyComment(session Session, comment store.Comment) bool {
	return rbac.CanModify(session.UserID, comment.AuthorID, session.Roles)
}
