package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across articles and comments using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultArticle {
		articleWhere := "a.fts @@ " + tsQuery
		if q.PublishedOnly {
			articleWhere += " AND a.is_published"
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'article'::text AS type, a.id::text, a.title,
				ts_headline('english', coalesce(a.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				a.id::text AS article_id, u.display_name AS author_name,
				a.is_published AS published,
				ts_rank(a.fts, %s) AS rank
			FROM articles a
			JOIN users u ON u.id = a.author_id
			WHERE %s`, tsQuery, tsQuery, articleWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultComment {
		commentWhere := "c.fts @@ " + tsQuery
		if q.PublishedOnly {
			commentWhere += " AND a.is_published"
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'comment'::text AS type, c.id::text, u.display_name AS title,
				ts_headline('english', c.content, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				c.article_id::text, u.display_name AS author_name,
				a.is_published AS published,
				ts_rank(c.fts, %s) AS rank
			FROM comments c
			JOIN articles a ON a.id = c.article_id
			JOIN users u ON u.id = c.author_id
			WHERE %s`, tsQuery, tsQuery, commentWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, article_id, author_name, published
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ArticleID, &r.AuthorName, &r.Published); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ArticleRecord, []CommentRecord, error) {
	articleRows, err := p.db.QueryContext(ctx, `
		SELECT a.id::text, a.title, coalesce(a.body, ''), u.display_name, a.is_published
		FROM articles a
		JOIN users u ON u.id = a.author_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load articles: %w", err)
	}
	defer articleRows.Close()

	articles := make([]ArticleRecord, 0)
	for articleRows.Next() {
		var a ArticleRecord
		if err := articleRows.Scan(&a.ID, &a.Title, &a.Body, &a.AuthorName, &a.Published); err != nil {
			return nil, nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := articleRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate articles: %w", err)
	}

	commentRows, err := p.db.QueryContext(ctx, `
		SELECT c.id::text, c.content, c.article_id::text, u.display_name, a.is_published
		FROM comments c
		JOIN articles a ON a.id = c.article_id
		JOIN users u ON u.id = c.author_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load comments: %w", err)
	}
	defer commentRows.Close()

	comments := make([]CommentRecord, 0)
	for commentRows.Next() {
		var c CommentRecord
		if err := commentRows.Scan(&c.ID, &c.Content, &c.ArticleID, &c.AuthorName, &c.Published); err != nil {
			return nil, nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := commentRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate comments: %w", err)
	}

	return articles, comments, nil
}
