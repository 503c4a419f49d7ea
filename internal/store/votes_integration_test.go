package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// TestCastVoteToggleRoundTrip exercises the vote transaction against a real
// Postgres: insert, toggle off, flip, and the uniqueness backstop.
func TestCastVoteToggleRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := strings.TrimSpace(os.Getenv("PRESSROOM_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("PRESSROOM_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	if err := ApplyMigrations(ctx, db, "../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	pg := NewPostgresStore(db)

	voter, err := pg.EnsureUserByName(ctx, "vote-walk-voter")
	if err != nil {
		t.Fatalf("ensure voter: %v", err)
	}
	author, err := pg.EnsureUserByName(ctx, "vote-walk-author")
	if err != nil {
		t.Fatalf("ensure author: %v", err)
	}

	articleID, err := pg.InsertArticle(ctx, Article{
		Title:       "vote walk",
		Body:        "body",
		IsPublished: true,
		AuthorID:    author.ID,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert article: %v", err)
	}
	defer func() { _ = pg.DeleteArticle(ctx, articleID) }()

	expectScore := func(want int) {
		t.Helper()
		score, err := pg.ArticleScore(ctx, articleID)
		if err != nil {
			t.Fatalf("article score: %v", err)
		}
		if score != want {
			t.Fatalf("score = %d, want %d", score, want)
		}
	}

	expectScore(0)

	if err := pg.CastVote(ctx, articleID, voter.ID, 1); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	expectScore(1)

	vote, err := pg.UserVote(ctx, articleID, voter.ID)
	if err != nil {
		t.Fatalf("user vote: %v", err)
	}
	if vote == nil || *vote != 1 {
		t.Fatalf("user vote = %v, want 1", vote)
	}

	// Same value toggles the vote off.
	if err := pg.CastVote(ctx, articleID, voter.ID, 1); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	expectScore(0)

	vote, err = pg.UserVote(ctx, articleID, voter.ID)
	if err != nil {
		t.Fatalf("user vote after toggle: %v", err)
	}
	if vote != nil {
		t.Fatalf("user vote after toggle = %d, want none", *vote)
	}

	// Downvote then flip to upvote in place.
	if err := pg.CastVote(ctx, articleID, voter.ID, -1); err != nil {
		t.Fatalf("downvote: %v", err)
	}
	expectScore(-1)
	if err := pg.CastVote(ctx, articleID, voter.ID, 1); err != nil {
		t.Fatalf("flip vote: %v", err)
	}
	expectScore(1)
}
