package store

import "time"

type User struct {
	ID          string
	DisplayName string
	Email       string
	Roles       []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Article is owned by exactly one author; AuthorID is set on insert and never
// updated afterwards. ImageKey references an object in blob storage and may
// be empty.
type Article struct {
	ID          int64
	Title       string
	Body        string
	ImageKey    string
	IsPublished bool
	AuthorID    string
	AuthorName  string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// Comment belongs to an article by id only (weak reference); deleting the
// article cascades over its comments. UpdatedAt stays nil until the first
// edit.
type Comment struct {
	ID         int64
	ArticleID  int64
	AuthorID   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// ArticleVote holds one row per (article, voter) pair, enforced by a unique
// index; Value is +1 or -1.
type ArticleVote struct {
	ID        int64
	ArticleID int64
	UserID    string
	Value     int
	VotedAt   time.Time
}

// CommitInfo summarizes one revision in an article's archive.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}
