package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestArticleRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{
		Title:    "First Article",
		Body:     "The original body text.",
		ImageKey: "images/first.png",
	}

	if err := svc.EnsureArticleRepo(1, initial, "Avery"); err != nil {
		t.Fatalf("EnsureArticleRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Re-ensuring an existing archive is a no-op.
	if err := svc.EnsureArticleRepo(1, initial, "Avery"); err != nil {
		t.Fatalf("EnsureArticleRepo() second call error = %v", err)
	}

	updated := initial
	updated.Body = "The revised body text."
	commit, err := svc.CommitContent(1, updated, "Avery", "Revise body")
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	history, err := svc.History(1, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Message != "Revise body" {
		t.Fatalf("expected newest-first history, got %+v", history[0])
	}

	changed, err := svc.GetContentByHash(1, commit.Hash)
	if err != nil {
		t.Fatalf("GetContentByHash() error = %v", err)
	}
	if changed.Body != "The revised body text." {
		t.Fatalf("unexpected content: %+v", changed)
	}
}

func TestCommitContentSkipsUnchangedRevision(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{Title: "Stable", Body: "Same body."}
	if err := svc.EnsureArticleRepo(7, initial, "Avery"); err != nil {
		t.Fatalf("EnsureArticleRepo() error = %v", err)
	}

	first, err := svc.CommitContent(7, initial, "Avery", "No-op save")
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}

	second, err := svc.CommitContent(7, initial, "Avery", "Another no-op save")
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}
	if first.Hash != second.Hash {
		t.Fatalf("expected identical content to reuse head %s, got %s", first.Hash, second.Hash)
	}

	history, err := svc.History(7, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected only the baseline commit, got %d", len(history))
	}
}

func TestRemoveArticleRepo(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureArticleRepo(3, Content{Title: "Doomed"}, "Avery"); err != nil {
		t.Fatalf("EnsureArticleRepo() error = %v", err)
	}
	if err := svc.RemoveArticleRepo(3); err != nil {
		t.Fatalf("RemoveArticleRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "3")); !os.IsNotExist(err) {
		t.Fatalf("expected repo directory gone, stat err = %v", err)
	}

	if _, err := svc.History(3, 10); err == nil {
		t.Fatal("expected History() to fail for removed archive")
	}
}

func TestConcurrentCommitContent(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{Title: "Contended", Body: "start"}
	if err := svc.EnsureArticleRepo(9, initial, "Avery"); err != nil {
		t.Fatalf("EnsureArticleRepo() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next := initial
			next.Body = fmt.Sprintf("body-%02d", idx)
			if _, err := svc.CommitContent(9, next, "Avery", fmt.Sprintf("Commit %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitContent() concurrent error = %v", err)
		}
	}

	history, err := svc.History(9, 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) < writers+1 {
		t.Fatalf("expected at least %d commits in history, got %d", writers+1, len(history))
	}

	head, _, err := svc.GetHeadContent(9)
	if err != nil {
		t.Fatalf("GetHeadContent() error = %v", err)
	}
	if !strings.HasPrefix(head.Body, "body-") {
		t.Fatalf("unexpected head content after concurrent commits: %+v", head)
	}
}
