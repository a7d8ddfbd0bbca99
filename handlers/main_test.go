// minber/handlers/main_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"minber/database"
	"minber/models"
	"minber/storage"
	"minber/utils"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	store       *storage.Service
	rateLimiter *models.RateLimiter
	logger      *slog.Logger
	blobs       models.BlobStore
	uploadDir   string
	adminToken  string
}

func (a *MockApplication) Storage() *storage.Service        { return a.store }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Logger() *slog.Logger             { return a.logger }
func (a *MockApplication) Blobs() models.BlobStore          { return a.blobs }
func (a *MockApplication) UploadDir() string                { return a.uploadDir }
func (a *MockApplication) AdminToken() string               { return a.adminToken }

// setupTestApp creates a full application stack with a test database.
func setupTestApp(t *testing.T) *MockApplication {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dbDir, err := os.MkdirTemp("", "minber_test_db_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dbDir, "test.db?_journal_mode=WAL&_foreign_keys=on")
	adapter, err := database.NewSQLiteAdapter(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	uploadDir, err := os.MkdirTemp("", "minber_test_uploads_*")
	if err != nil {
		t.Fatalf("Failed to create temp upload dir: %v", err)
	}

	app := &MockApplication{
		store: storage.NewService(adapter, nil, logger),
		// Generous limits so ordinary tests never trip the limiter.
		rateLimiter: models.NewRateLimiter(time.Millisecond, 1000, time.Hour, 24*time.Hour),
		logger:      logger,
		blobs:       &utils.LocalStorage{UploadDir: uploadDir},
		uploadDir:   uploadDir,
		adminToken:  "test-admin-token",
	}

	t.Cleanup(func() {
		adapter.Close()
		os.RemoveAll(dbDir)
		os.RemoveAll(uploadDir)
	})

	return app
}

// doJSON performs a request with a JSON body against the full router.
func doJSON(t *testing.T, app *MockApplication, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	SetupRouter(app).ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func seedTestUser(t *testing.T, app *MockApplication, username string) *models.User {
	t.Helper()
	user, err := app.store.CreateUser(context.Background(), models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	return user
}
