// minber/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"minber/config"
	"minber/database"
	"minber/models"
	"minber/storage"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	Storage() *storage.Service
	RateLimiter() *models.RateLimiter
	Logger() *slog.Logger
	Blobs() models.BlobStore
	UploadDir() string
	AdminToken() string
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// respondError maps storage and database errors onto HTTP statuses.
func respondError(w http.ResponseWriter, r *http.Request, app App, err error) {
	switch {
	case storage.IsBanActive(err):
		respondJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()}, app)
	case storage.IsModerationRejected(err):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()}, app)
	case database.IsConstraintError(err):
		respondJSON(w, http.StatusConflict, map[string]string{"error": "Resource already exists"}, app)
	case database.IsConnectionError(err):
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Storage backend unavailable"}, app)
	default:
		app.Logger().Error("Request failed", "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"}, app)
	}
}

func respondBadRequest(w http.ResponseWriter, app App, msg string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{"error": msg}, app)
}

func respondNotFound(w http.ResponseWriter, app App) {
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"}, app)
}

// decodeJSON reads a JSON request body with a sane size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

// limitParam parses the ?limit query parameter, zero when absent.
func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// MakeHandler adapts a handler needing the App interface to http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// --- Health ---

func HandleHealth(w http.ResponseWriter, r *http.Request, app App) {
	backends := app.Storage().BackendStatus(r.Context())
	if err := app.Storage().HealthCheck(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "degraded",
			"version":  config.AppVersion,
			"backends": backends,
		}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  config.AppVersion,
		"backends": backends,
	}, app)
}

// --- Auth & Users ---

type signupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func HandleSignup(w http.ResponseWriter, r *http.Request, app App) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" || len(req.Username) > config.MaxUsernameLen {
		respondBadRequest(w, app, "Username is required and must be at most 50 characters")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondBadRequest(w, app, "A valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondBadRequest(w, app, "Password must be at least 8 characters")
		return
	}
	if len(req.DisplayName) > config.MaxDisplayNameLen {
		respondBadRequest(w, app, "Display name too long")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, r, app, err)
		return
	}

	user, err := app.Storage().CreateUser(r.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	})
	if err != nil {
		if database.IsConstraintError(err) {
			respondJSON(w, http.StatusConflict, map[string]string{"error": "Username or email already taken"}, app)
			return
		}
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, user, app)
}

type signinRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func HandleSignin(w http.ResponseWriter, r *http.Request, app App) {
	var req signinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}

	var user *models.User
	var err error
	switch {
	case req.Email != "":
		user, err = app.Storage().GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	case req.Username != "":
		user, err = app.Storage().GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	default:
		respondBadRequest(w, app, "Email or username is required")
		return
	}
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"}, app)
		return
	}
	respondJSON(w, http.StatusOK, user, app)
}

func HandleGetUser(w http.ResponseWriter, r *http.Request, app App) {
	user, err := app.Storage().GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if user == nil {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, user, app)
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

func HandleUpdateUser(w http.ResponseWriter, r *http.Request, app App) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	if req.DisplayName != nil && len(*req.DisplayName) > config.MaxDisplayNameLen {
		respondBadRequest(w, app, "Display name too long")
		return
	}
	if req.AvatarURL != nil && *req.AvatarURL != "" && !validAvatarURL(*req.AvatarURL) {
		respondBadRequest(w, app, "Avatar must be an image URL")
		return
	}
	user, err := app.Storage().UpdateUser(r.Context(), chi.URLParam(r, "userID"), storage.UserUpdate{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Bio:         req.Bio,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if user == nil {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, user, app)
}
