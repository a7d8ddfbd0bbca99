// minber/handlers/content.go

package handlers

import (
	"net/http"
	"strings"

	"minber/config"
	"minber/models"
	"minber/utils"

	"github.com/go-chi/chi/v5"
)

// --- Posts ---

func HandleGetPosts(w http.ResponseWriter, r *http.Request, app App) {
	posts, err := app.Storage().GetPosts(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, posts, app)
}

func HandleGetPost(w http.ResponseWriter, r *http.Request, app App) {
	post, err := app.Storage().GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if post == nil {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, post, app)
}

type createPostRequest struct {
	UserID   string   `json:"user_id"`
	Content  string   `json:"content"`
	Type     string   `json:"type"`
	MediaURL string   `json:"media_url"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func HandleCreatePost(w http.ResponseWriter, r *http.Request, app App) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}
	if req.Content == "" || len(req.Content) > config.MaxContentLen {
		respondBadRequest(w, app, "Content is required and must be at most 10000 characters")
		return
	}
	if len(req.Tags) > config.MaxTags {
		respondBadRequest(w, app, "Too many tags")
		return
	}

	switch req.Type {
	case "", "text":
		req.Type = "text"
		req.MediaURL = ""
	case "image":
		if !utils.IsValidImageURL(req.MediaURL) {
			respondBadRequest(w, app, "media_url must be an image URL")
			return
		}
	case "video":
		if !utils.IsValidVideoURL(req.MediaURL) {
			respondBadRequest(w, app, "media_url must be a video URL")
			return
		}
		req.MediaURL = utils.ConvertToEmbedURL(req.MediaURL)
	default:
		respondBadRequest(w, app, "Unknown post type")
		return
	}

	post, err := app.Storage().CreatePost(r.Context(), models.Post{
		UserID:   req.UserID,
		Content:  req.Content,
		Type:     req.Type,
		MediaURL: req.MediaURL,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, post, app)
}

func HandleDeletePost(w http.ResponseWriter, r *http.Request, app App) {
	deleted, err := app.Storage().DeletePost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if !deleted {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true}, app)
}

// --- Prayer requests ---

func HandleGetRequests(w http.ResponseWriter, r *http.Request, app App) {
	requests, err := app.Storage().GetRequests(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, requests, app)
}

func HandleGetRequest(w http.ResponseWriter, r *http.Request, app App) {
	request, err := app.Storage().GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if request == nil {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, request, app)
}

type createRequestRequest struct {
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func HandleCreateRequest(w http.ResponseWriter, r *http.Request, app App) {
	var req createRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}
	if req.Content == "" || len(req.Content) > config.MaxContentLen {
		respondBadRequest(w, app, "Content is required and must be at most 10000 characters")
		return
	}
	request, err := app.Storage().CreateRequest(r.Context(), models.PrayerRequest{
		UserID:   req.UserID,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, request, app)
}

func HandleDeleteRequest(w http.ResponseWriter, r *http.Request, app App) {
	deleted, err := app.Storage().DeleteRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if !deleted {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true}, app)
}

// --- Comments ---

// targetFromRequest resolves the content target from the route. Routes
// are mounted under either /posts/{postID}/... or /requests/{requestID}/...
// so exactly one param is set.
func targetFromRequest(r *http.Request) (models.TargetRef, bool) {
	if id := chi.URLParam(r, "postID"); id != "" {
		return models.PostTarget(id), true
	}
	if id := chi.URLParam(r, "requestID"); id != "" {
		return models.RequestTarget(id), true
	}
	return models.TargetRef{}, false
}

func HandleGetComments(w http.ResponseWriter, r *http.Request, app App) {
	target, ok := targetFromRequest(r)
	if !ok {
		respondBadRequest(w, app, "Missing content target")
		return
	}
	comments, err := app.Storage().GetComments(r.Context(), target)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, comments, app)
}

type createCommentRequest struct {
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
	IsPrayer bool   `json:"is_prayer"`
}

func HandleCreateComment(w http.ResponseWriter, r *http.Request, app App) {
	target, ok := targetFromRequest(r)
	if !ok {
		respondBadRequest(w, app, "Missing content target")
		return
	}
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}
	if req.Content == "" || len(req.Content) > config.MaxCommentLen {
		respondBadRequest(w, app, "Comment is required and must be at most 2000 characters")
		return
	}
	comment, err := app.Storage().CreateComment(r.Context(), models.Comment{
		UserID:   req.UserID,
		Target:   target,
		Content:  req.Content,
		IsPrayer: req.IsPrayer,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment, app)
}

// --- Reactions ---

type reactionRequest struct {
	UserID string `json:"user_id"`
}

func HandleToggleLike(w http.ResponseWriter, r *http.Request, app App) {
	handleToggle(w, r, app, models.ReactionLike)
}

func HandleToggleBookmark(w http.ResponseWriter, r *http.Request, app App) {
	handleToggle(w, r, app, models.ReactionBookmark)
}

func handleToggle(w http.ResponseWriter, r *http.Request, app App, kind models.ReactionKind) {
	target, ok := targetFromRequest(r)
	if !ok {
		respondBadRequest(w, app, "Missing content target")
		return
	}
	var req reactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}

	var active bool
	var err error
	if kind == models.ReactionLike {
		active, err = app.Storage().ToggleLike(r.Context(), req.UserID, target)
	} else {
		active, err = app.Storage().ToggleBookmark(r.Context(), req.UserID, target)
	}
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"active": active}, app)
}

func HandleReactionStatus(w http.ResponseWriter, r *http.Request, app App) {
	target, ok := targetFromRequest(r)
	if !ok {
		respondBadRequest(w, app, "Missing content target")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}

	liked, err := app.Storage().HasReaction(r.Context(), models.ReactionLike, userID, target)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	bookmarked, err := app.Storage().HasReaction(r.Context(), models.ReactionBookmark, userID, target)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	likeCount, err := app.Storage().CountReactions(r.Context(), models.ReactionLike, target)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"liked":      liked,
		"bookmarked": bookmarked,
		"like_count": likeCount,
	}, app)
}

func HandleGetBookmarks(w http.ResponseWriter, r *http.Request, app App) {
	userID := chi.URLParam(r, "userID")
	switch r.URL.Query().Get("kind") {
	case "", "posts":
		posts, err := app.Storage().GetBookmarkedPosts(r.Context(), userID)
		if err != nil {
			respondError(w, r, app, err)
			return
		}
		respondJSON(w, http.StatusOK, posts, app)
	case "requests":
		requests, err := app.Storage().GetBookmarkedRequests(r.Context(), userID)
		if err != nil {
			respondError(w, r, app, err)
			return
		}
		respondJSON(w, http.StatusOK, requests, app)
	default:
		respondBadRequest(w, app, "kind must be posts or requests")
	}
}
