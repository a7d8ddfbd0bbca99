// minber/storage/toggle_test.go
package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"minber/database"
	"minber/models"
)

// setupTestBackend creates a fresh SQLite adapter for storage tests.
func setupTestBackend(t *testing.T) *database.SQLAdapter {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dir, err := os.MkdirTemp("", "minber_test_storage")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dir, "test.db?_journal_mode=WAL&_foreign_keys=on")

	adapter, err := database.NewSQLiteAdapter(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	t.Cleanup(func() {
		adapter.Close()
		os.RemoveAll(dir)
	})

	return adapter
}

// setupTestService wires a Service onto a single SQLite backend.
func setupTestService(t *testing.T) (*Service, *database.SQLAdapter) {
	adapter := setupTestBackend(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(adapter, nil, logger), adapter
}

func seedUser(t *testing.T, svc *Service, username string) *models.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), models.User{
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	return user
}

func seedPost(t *testing.T, svc *Service, userID, content string) *models.Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), models.Post{
		UserID:  userID,
		Content: content,
	})
	if err != nil {
		t.Fatalf("Failed to seed post: %v", err)
	}
	return post
}

func TestToggleAlternates(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()

	user := seedUser(t, svc, "alice")
	post := seedPost(t, svc, user.ID, "hello world")
	target := models.PostTarget(post.ID)

	engine := NewToggleEngine(slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)

	// An odd number of toggles leaves the reaction active, an even
	// number leaves it absent.
	for i := 1; i <= 5; i++ {
		active, err := engine.Toggle(ctx, adapter, models.ReactionLike, user.ID, target)
		if err != nil {
			t.Fatalf("Toggle %d failed: %v", i, err)
		}
		wantActive := i%2 == 1
		if active != wantActive {
			t.Errorf("Toggle %d: expected active=%v, got %v", i, wantActive, active)
		}

		has, err := engine.Has(ctx, adapter, models.ReactionLike, user.ID, target)
		if err != nil {
			t.Fatalf("Has failed: %v", err)
		}
		if has != wantActive {
			t.Errorf("Toggle %d: Has reported %v, expected %v", i, has, wantActive)
		}
	}
}

func TestToggleKindsIndependent(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()

	user := seedUser(t, svc, "alice")
	post := seedPost(t, svc, user.ID, "hello world")
	target := models.PostTarget(post.ID)

	engine := NewToggleEngine(slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)

	if _, err := engine.Toggle(ctx, adapter, models.ReactionLike, user.ID, target); err != nil {
		t.Fatalf("Like toggle failed: %v", err)
	}
	bookmarked, err := engine.Has(ctx, adapter, models.ReactionBookmark, user.ID, target)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if bookmarked {
		t.Error("Liking a post must not bookmark it")
	}
}

func TestToggleConstraintTreatedAsActive(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()

	user := seedUser(t, svc, "alice")
	post := seedPost(t, svc, user.ID, "hello world")
	target := models.PostTarget(post.ID)

	engine := NewToggleEngine(slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)

	// Simulate the losing side of a concurrent toggle: the row already
	// exists when the insert leg runs.
	if _, err := engine.Toggle(ctx, adapter, models.ReactionLike, user.ID, target); err != nil {
		t.Fatalf("Setup toggle failed: %v", err)
	}
	_, err := adapter.Insert(ctx, "likes", database.Row{
		"id": "dup", "user_id": user.ID, "post_id": post.ID, "request_id": nil,
		"created_at": time.Now().UTC(),
	})
	if !database.IsConstraintError(err) {
		t.Fatalf("Expected constraint error from duplicate like, got %v", err)
	}
}

func TestToggleRejectsInvalidTarget(t *testing.T) {
	_, adapter := setupTestService(t)
	engine := NewToggleEngine(slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)

	if _, err := engine.Toggle(context.Background(), adapter, models.ReactionLike, "u1", models.TargetRef{}); err == nil {
		t.Error("Expected error for empty target")
	}
	if _, err := engine.Toggle(context.Background(), adapter, models.ReactionKind("star"), "u1", models.PostTarget("p1")); err == nil {
		t.Error("Expected error for unknown reaction kind")
	}
}
