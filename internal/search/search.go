package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultArticle ResultType = "article"
	ResultComment ResultType = "comment"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	ArticleID  string     `json:"articleId"`
	AuthorName string     `json:"authorName"`
	Published  bool       `json:"published"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
	// PublishedOnly restricts hits to published articles and their comments.
	// Set for all callers except administrators.
	PublishedOnly bool
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexArticle(a ArticleRecord) error
	IndexComment(c CommentRecord) error
	DeleteArticle(id string) error
	DeleteComment(id string) error
}

// ArticleRecord is the data we index for an article.
type ArticleRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	AuthorName string `json:"authorName"`
	Published  bool   `json:"published"`
}

// CommentRecord is the data we index for a comment.
type CommentRecord struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	ArticleID  string `json:"articleId"`
	AuthorName string `json:"authorName"`
	Published  bool   `json:"published"`
}
