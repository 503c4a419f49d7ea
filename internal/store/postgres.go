package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"pressroom/api/internal/ranking"
	"pressroom/api/internal/util"
)

// ErrVoteConflict reports that a concurrent vote write from the same voter
// tripped the (article_id, user_id) uniqueness constraint. The vote was not
// processed; the caller may retry.
var ErrVoteConflict = errors.New("vote not processed: concurrent vote write")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users & roles ----

func (s *PostgresStore) EnsureUserByName(ctx context.Context, name string) (User, error) {
	const findUser = `SELECT id, display_name, email FROM users WHERE display_name = $1`
	var user User
	err := s.db.QueryRowContext(ctx, findUser, name).Scan(&user.ID, &user.DisplayName, &user.Email)
	if err == nil {
		roles, rolesErr := s.RolesOf(ctx, user.ID)
		if rolesErr != nil {
			return User{}, rolesErr
		}
		user.Roles = roles
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	user.ID = util.NewID("usr")
	insertUser := `
		INSERT INTO users (id, display_name, email)
		VALUES ($1, $2, CONCAT(LOWER(REPLACE($2, ' ', '.')), '@local.pressroom.dev'))
		RETURNING id, display_name, email
	`
	if err := s.db.QueryRowContext(ctx, insertUser, user.ID, name).Scan(&user.ID, &user.DisplayName, &user.Email); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	// New accounts may comment; everything else is granted by an administrator.
	if err := s.GrantRole(ctx, user.ID, "commenter"); err != nil {
		return User{}, err
	}

	user.Roles = []string{"commenter"}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `SELECT id, display_name, email FROM users WHERE id=$1`, userID).
		Scan(&user.ID, &user.DisplayName, &user.Email)
	if err != nil {
		return User{}, err
	}
	roles, err := s.RolesOf(ctx, user.ID)
	if err != nil {
		return User{}, err
	}
	user.Roles = roles
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.display_name, u.email, COALESCE(ARRAY_AGG(ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		GROUP BY u.id, u.display_name, u.email
		ORDER BY u.display_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var item User
		var roles []byte
		if err := rows.Scan(&item.ID, &item.DisplayName, &item.Email, &roles); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		item.Roles = parseTextArray(string(roles))
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) RolesOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id=$1 ORDER BY role ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("read roles: %w", err)
	}
	defer rows.Close()

	roles := make([]string, 0, 4)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

func (s *PostgresStore) GrantRole(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, userID, role)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRole(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id=$1 AND role=$2`, userID, role)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

// ---- refresh sessions (postgres fallback when redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.display_name, u.email
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email)
	if err != nil {
		return User{}, err
	}
	roles, err := s.RolesOf(ctx, user.ID)
	if err != nil {
		return User{}, err
	}
	user.Roles = roles
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ---- articles ----

const articleColumns = `
	a.id, a.title, COALESCE(a.body, ''), COALESCE(a.image_key, ''), a.is_published,
	a.author_id, u.display_name, a.published_at, a.updated_at
`

func scanArticle(row interface{ Scan(...any) error }) (Article, error) {
	var item Article
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Body,
		&item.ImageKey,
		&item.IsPublished,
		&item.AuthorID,
		&item.AuthorName,
		&item.PublishedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) collectArticles(rows *sql.Rows) ([]Article, error) {
	defer rows.Close()
	items := make([]Article, 0)
	for rows.Next() {
		item, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListPublishedArticles(ctx context.Context) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE a.is_published
		ORDER BY a.published_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	return s.collectArticles(rows)
}

func (s *PostgresStore) ListArticlesByAuthor(ctx context.Context, authorID string) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE a.author_id=$1
		ORDER BY a.published_at DESC
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list articles by author: %w", err)
	}
	return s.collectArticles(rows)
}

func (s *PostgresStore) ListAllArticles(ctx context.Context) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN users u ON u.id = a.author_id
		ORDER BY a.published_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all articles: %w", err)
	}
	return s.collectArticles(rows)
}

func (s *PostgresStore) GetArticle(ctx context.Context, articleID int64) (Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE a.id=$1
	`, articleID)
	return scanArticle(row)
}

func (s *PostgresStore) InsertArticle(ctx context.Context, item Article) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (title, body, image_key, is_published, author_id, published_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $6)
		RETURNING id
	`, item.Title, item.Body, item.ImageKey, item.IsPublished, item.AuthorID, item.PublishedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// UpdateArticle never touches author_id or published_at; authorship is
// immutable and the publication timestamp is stamped once at creation.
func (s *PostgresStore) UpdateArticle(ctx context.Context, item Article) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET title=$2, body=NULLIF($3, ''), image_key=NULLIF($4, ''), is_published=$5, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Title, item.Body, item.ImageKey, item.IsPublished)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update article rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteArticle relies on ON DELETE CASCADE to remove the article's votes
// and comments in the same statement.
func (s *PostgresStore) DeleteArticle(ctx context.Context, articleID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id=$1`, articleID)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- comments ----

func (s *PostgresStore) ListCommentsByArticle(ctx context.Context, articleID int64) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.article_id, c.author_id, u.display_name, c.content, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.article_id=$1
		ORDER BY c.created_at ASC
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		var item Comment
		if err := rows.Scan(&item.ID, &item.ArticleID, &item.AuthorID, &item.AuthorName, &item.Content, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetComment(ctx context.Context, commentID int64) (Comment, error) {
	var item Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.article_id, c.author_id, u.display_name, c.content, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id=$1
	`, commentID).Scan(&item.ID, &item.ArticleID, &item.AuthorID, &item.AuthorName, &item.Content, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Comment{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, item Comment) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (article_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.ArticleID, item.AuthorID, item.Content, item.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateComment(ctx context.Context, commentID int64, content string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE comments SET content=$2, updated_at=NOW() WHERE id=$1
	`, commentID, content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, commentID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- votes ----

// CastVote runs the read-decide-write toggle as one transaction: the
// existing row is read FOR UPDATE, the pure transition picks the single
// mutation, and the unique index on (article_id, user_id) backstops the race
// where two concurrent casts from the same voter both observe no row. A
// unique violation surfaces as ErrVoteConflict, never as success.
func (s *PostgresStore) CastVote(ctx context.Context, articleID int64, userID string, value int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current *int
	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT value FROM article_votes WHERE article_id=$1 AND user_id=$2 FOR UPDATE
	`, articleID, userID).Scan(&existing)
	if err == nil {
		current = &existing
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup vote: %w", err)
	}

	_, action, err := ranking.Transition(ranking.StateOf(current), value)
	if err != nil {
		return err
	}

	switch action {
	case ranking.ActionInsert:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO article_votes (article_id, user_id, value, voted_at)
			VALUES ($1, $2, $3, NOW())
		`, articleID, userID, value); err != nil {
			if isUniqueViolation(err) {
				return ErrVoteConflict
			}
			return fmt.Errorf("insert vote: %w", err)
		}
	case ranking.ActionUpdate:
		if _, err := tx.ExecContext(ctx, `
			UPDATE article_votes SET value=$3, voted_at=NOW()
			WHERE article_id=$1 AND user_id=$2
		`, articleID, userID, value); err != nil {
			return fmt.Errorf("update vote: %w", err)
		}
	case ranking.ActionDelete:
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM article_votes WHERE article_id=$1 AND user_id=$2
		`, articleID, userID); err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// ArticleScore recomputes the score by summation on every read; there is no
// cached counter to drift.
func (s *PostgresStore) ArticleScore(ctx context.Context, articleID int64) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value), 0) FROM article_votes WHERE article_id=$1
	`, articleID).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("article score: %w", err)
	}
	return score, nil
}

// UserVote returns nil when the voter has no vote on the article.
func (s *PostgresStore) UserVote(ctx context.Context, articleID int64, userID string) (*int, error) {
	var value int
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM article_votes WHERE article_id=$1 AND user_id=$2
	`, articleID, userID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user vote: %w", err)
	}
	return &value, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// parseTextArray decodes the flat `{a,b}` form produced by ARRAY_AGG over
// role names; role names never contain quotes or commas.
func parseTextArray(raw string) []string {
	trimmed := raw
	if len(trimmed) >= 2 && trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	if trimmed == "" {
		return []string{}
	}
	parts := make([]string, 0, 4)
	start := 0
	for i := 0; i <= len(trimmed); i++ {
		if i == len(trimmed) || trimmed[i] == ',' {
			parts = append(parts, trimmed[start:i])
			start = i + 1
		}
	}
	return parts
}
