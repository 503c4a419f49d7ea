package app

import (
	"context"
	"log"
	"strings"
	"time"

	"pressroom/api/internal/auth"
	"pressroom/api/internal/config"
	"pressroom/api/internal/export"
	"pressroom/api/internal/gitrepo"
	"pressroom/api/internal/rbac"
	"pressroom/api/internal/search"
	"pressroom/api/internal/store"
	"pressroom/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Roles        []rbac.Role
	JTI          string
	ExpiresAt    time.Time
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

type dataStore interface {
	EnsureUserByName(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	ListUsers(context.Context) ([]store.User, error)
	RolesOf(context.Context, string) ([]string, error)
	GrantRole(context.Context, string, string) error
	RevokeRole(context.Context, string, string) error

	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)

	ListPublishedArticles(context.Context) ([]store.Article, error)
	ListArticlesByAuthor(context.Context, string) ([]store.Article, error)
	ListAllArticles(context.Context) ([]store.Article, error)
	GetArticle(context.Context, int64) (store.Article, error)
	InsertArticle(context.Context, store.Article) (int64, error)
	UpdateArticle(context.Context, store.Article) error
	DeleteArticle(context.Context, int64) error

	ListCommentsByArticle(context.Context, int64) ([]store.Comment, error)
	GetComment(context.Context, int64) (store.Comment, error)
	InsertComment(context.Context, store.Comment) (int64, error)
	UpdateComment(context.Context, int64, string) error
	DeleteComment(context.Context, int64) error

	CastVote(context.Context, int64, string, int) error
	ArticleScore(context.Context, int64) (int, error)
	UserVote(context.Context, int64, string) (*int, error)

	Ping(ctx context.Context) error
}

// sessionStore holds refresh sessions. Redis when configured, the Postgres
// store otherwise.
type sessionStore interface {
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type gitService interface {
	EnsureArticleRepo(int64, gitrepo.Content, string) error
	CommitContent(int64, gitrepo.Content, string, string) (store.CommitInfo, error)
	GetHeadContent(int64) (gitrepo.Content, store.CommitInfo, error)
	GetContentByHash(int64, string) (gitrepo.Content, error)
	History(int64, int) ([]store.CommitInfo, error)
	RemoveArticleRepo(int64) error
}

type searchService interface {
	Search(search.Query) search.Response
	IndexArticle(search.ArticleRecord)
	IndexComment(search.CommentRecord)
	DeleteArticle(string)
	DeleteComment(string)
	ReindexAllFromPG(context.Context)
}

// imageStore removes article image objects once the database no longer
// references them.
type imageStore interface {
	Remove(ctx context.Context, key string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	git      gitService
	search   searchService
	images   imageStore
	exporter *export.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, gitService *gitrepo.Service) *Service {
	s := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		git:      gitService,
	}
	s.exporter = export.NewService(&exportAdapter{service: s})
	return s
}

// UseSessionStore swaps the refresh-session backend, typically for Redis.
func (s *Service) UseSessionStore(sessions sessionStore) {
	s.sessions = sessions
}

// UseSearch wires the search facade. Without it, search returns empty results.
func (s *Service) UseSearch(svc searchService) {
	s.search = svc
}

// UseImageStore wires the object store used for deferred image cleanup.
func (s *Service) UseImageStore(images imageStore) {
	s.images = images
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap seeds the administrator account named in the configuration and
// refreshes the search index. Both steps are idempotent.
func (s *Service) Bootstrap(ctx context.Context) error {
	if name := strings.TrimSpace(s.cfg.AdminBootstrapName); name != "" {
		admin, err := s.store.EnsureUserByName(ctx, name)
		if err != nil {
			return err
		}
		if err := s.store.GrantRole(ctx, admin.ID, string(rbac.RoleAdministrator)); err != nil {
			return err
		}
	}

	if s.search != nil {
		go s.search.ReindexAllFromPG(context.WithoutCancel(ctx))
	}
	return nil
}

func (s *Service) Login(ctx context.Context, name string) (Session, error) {
	userName := strings.TrimSpace(name)
	if userName == "" {
		return Session{}, errValidation("name is required", nil)
	}

	user, err := s.store.EnsureUserByName(ctx, userName)
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	// Re-read the user so role changes since login take effect now.
	user, err = s.store.GetUserByID(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Roles: user.Roles,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Roles:        rbac.ParseRoles(user.Roles),
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Roles:     rbac.ParseRoles(user.Roles),
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Search runs a full-text query. Unpublished content is visible only to
// administrators.
func (s *Service) Search(ctx context.Context, text, filterType string, limit, offset int, session Session) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}

	q := search.Query{
		Text:          text,
		FilterType:    search.ResultType(filterType),
		Limit:         limit,
		Offset:        offset,
		PublishedOnly: !s.CanAdminister(session),
	}
	return s.search.Search(q), nil
}

// removeImage deletes an image object after the owning row change committed.
// Failures are logged, not surfaced: the database is already consistent and
// a leaked object is recoverable.
func (s *Service) removeImage(ctx context.Context, key string) {
	if s.images == nil || key == "" {
		return
	}
	if err := s.images.Remove(ctx, key); err != nil {
		log.Printf("image cleanup: remove %s: %v", key, err)
	}
}

// exportAdapter feeds article data to the export renderer.
type exportAdapter struct {
	service *Service
}

func (a *exportAdapter) GetArticleForExport(ctx context.Context, articleID int64) (export.ArticleInfo, error) {
	article, err := a.service.store.GetArticle(ctx, articleID)
	if err != nil {
		return export.ArticleInfo{}, err
	}
	score, err := a.service.store.ArticleScore(ctx, articleID)
	if err != nil {
		return export.ArticleInfo{}, err
	}
	return export.ArticleInfo{
		ID:          article.ID,
		Title:       article.Title,
		Body:        article.Body,
		AuthorName:  article.AuthorName,
		PublishedAt: article.PublishedAt,
		Score:       score,
	}, nil
}

func (a *exportAdapter) ListCommentsForExport(ctx context.Context, articleID int64) ([]export.CommentInfo, error) {
	comments, err := a.service.store.ListCommentsByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	items := make([]export.CommentInfo, 0, len(comments))
	for _, c := range comments {
		items = append(items, export.CommentInfo{
			Author:    c.AuthorName,
			Body:      c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return items, nil
}
