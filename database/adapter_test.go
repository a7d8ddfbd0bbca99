// minber/database/adapter_test.go
package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestAdapter creates a fresh SQLite-backed adapter in a temp dir.
func setupTestAdapter(t *testing.T) *SQLAdapter {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dir, err := os.MkdirTemp("", "minber_test_db")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dir, "test.db?_journal_mode=WAL&_foreign_keys=on")

	adapter, err := NewSQLiteAdapter(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	t.Cleanup(func() {
		adapter.Close()
		os.RemoveAll(dir)
	})

	return adapter
}

func insertTestUser(t *testing.T, a *SQLAdapter, id, username string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := a.Insert(context.Background(), "users", Row{
		"id":            id,
		"username":      username,
		"email":         username + "@example.com",
		"password_hash": "x",
		"display_name":  username,
		"avatar_url":    "",
		"bio":           "",
		"is_verified":   false,
		"role":          "user",
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	insertTestUser(t, a, "u1", "alice")

	row, err := a.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row == nil {
		t.Fatal("Expected user row, got nil")
	}
	if row["username"] != "alice" {
		t.Errorf("Expected username alice, got %v", row["username"])
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	a := setupTestAdapter(t)

	row, err := a.Get(context.Background(), "users", "no-such-id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row != nil {
		t.Errorf("Expected nil for missing row, got %v", row)
	}
}

func TestUnknownEntityRejected(t *testing.T) {
	a := setupTestAdapter(t)

	if _, err := a.Get(context.Background(), "sqlite_master", "1"); err == nil {
		t.Error("Expected error for entity outside the whitelist")
	}
}

func TestQueryFilterAndOrder(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	insertTestUser(t, a, "u1", "alice")
	now := time.Now().UTC()
	for i, id := range []string{"p1", "p2", "p3"} {
		_, err := a.Insert(ctx, "posts", Row{
			"id":         id,
			"user_id":    "u1",
			"content":    "post " + id,
			"type":       "text",
			"media_url":  "",
			"category":   "general",
			"tags":       "[]",
			"created_at": now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Failed to insert post %s: %v", id, err)
		}
	}

	rows, err := a.Query(ctx, "posts", Row{"user_id": "u1"}, "created_at", true, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows with limit, got %d", len(rows))
	}
	if rows[0]["id"] != "p3" {
		t.Errorf("Expected newest post first, got %v", rows[0]["id"])
	}
}

func TestQueryNullFilter(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	insertTestUser(t, a, "u1", "alice")
	now := time.Now().UTC()
	if _, err := a.Insert(ctx, "posts", Row{
		"id": "p1", "user_id": "u1", "content": "c", "type": "text",
		"media_url": "", "category": "general", "tags": "[]", "created_at": now,
	}); err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}
	if _, err := a.Insert(ctx, "comments", Row{
		"id": "c1", "user_id": "u1", "post_id": "p1", "request_id": nil,
		"content": "hi", "is_prayer": false, "created_at": now,
	}); err != nil {
		t.Fatalf("Failed to insert comment: %v", err)
	}

	rows, err := a.Query(ctx, "comments", Row{"post_id": "p1", "request_id": nil}, "", false, 0)
	if err != nil {
		t.Fatalf("Query with nil filter failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(rows))
	}
	if rows[0]["request_id"] != nil {
		t.Errorf("Expected nil request_id, got %v", rows[0]["request_id"])
	}
}

func TestUpdate(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	insertTestUser(t, a, "u1", "alice")

	row, err := a.Update(ctx, "users", "u1", Row{"bio": "hello"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if row == nil || row["bio"] != "hello" {
		t.Errorf("Expected updated bio, got %v", row)
	}

	row, err = a.Update(ctx, "users", "missing", Row{"bio": "x"})
	if err != nil {
		t.Fatalf("Update of missing row errored: %v", err)
	}
	if row != nil {
		t.Errorf("Expected nil for missing row update, got %v", row)
	}
}

func TestDelete(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	insertTestUser(t, a, "u1", "alice")

	deleted, err := a.Delete(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to report true")
	}

	deleted, err = a.Delete(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Second delete errored: %v", err)
	}
	if deleted {
		t.Error("Expected second delete to report false")
	}
}

func TestConstraintErrorClassification(t *testing.T) {
	a := setupTestAdapter(t)

	insertTestUser(t, a, "u1", "alice")
	now := time.Now().UTC()
	_, err := a.Insert(context.Background(), "users", Row{
		"id": "u2", "username": "alice", "email": "other@example.com",
		"password_hash": "x", "display_name": "alice", "avatar_url": "",
		"bio": "", "is_verified": false, "role": "user",
		"created_at": now, "updated_at": now,
	})
	if err == nil {
		t.Fatal("Expected duplicate username to fail")
	}
	if !IsConstraintError(err) {
		t.Errorf("Expected ConstraintError, got %T: %v", err, err)
	}
	if IsConnectionError(err) {
		t.Error("Constraint violation misclassified as connection error")
	}
}

func TestPartialUniqueIndexAllowsDistinctTargets(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	insertTestUser(t, a, "u1", "alice")
	now := time.Now().UTC()
	for _, id := range []string{"p1", "p2"} {
		if _, err := a.Insert(ctx, "posts", Row{
			"id": id, "user_id": "u1", "content": "c", "type": "text",
			"media_url": "", "category": "general", "tags": "[]", "created_at": now,
		}); err != nil {
			t.Fatalf("Failed to insert post: %v", err)
		}
	}

	// Same user may like two different posts.
	likes := map[string]string{"l1": "p1", "l2": "p2"}
	for id, post := range likes {
		if _, err := a.Insert(ctx, "likes", Row{
			"id": id, "user_id": "u1",
			"post_id": post, "request_id": nil, "created_at": now,
		}); err != nil {
			t.Fatalf("Like on %s failed: %v", post, err)
		}
	}

	// A second like on the same post must hit the unique index.
	_, err := a.Insert(ctx, "likes", Row{
		"id": "l3", "user_id": "u1", "post_id": "p1", "request_id": nil, "created_at": now,
	})
	if !IsConstraintError(err) {
		t.Errorf("Expected ConstraintError for duplicate like, got %v", err)
	}
}
