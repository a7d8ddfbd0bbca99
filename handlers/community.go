// minber/handlers/community.go

package handlers

import (
	"net/http"
	"strings"
	"time"

	"minber/models"

	"github.com/go-chi/chi/v5"
)

// --- Communities ---

func HandleGetCommunities(w http.ResponseWriter, r *http.Request, app App) {
	communities, err := app.Storage().GetCommunities(r.Context())
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, communities, app)
}

type createCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

func HandleCreateCommunity(w http.ResponseWriter, r *http.Request, app App) {
	var req createCommunityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.CreatedBy == "" {
		respondBadRequest(w, app, "name and created_by are required")
		return
	}
	community, err := app.Storage().CreateCommunity(r.Context(), models.Community{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, community, app)
}

type joinRequest struct {
	UserID string `json:"user_id"`
}

func HandleJoinCommunity(w http.ResponseWriter, r *http.Request, app App) {
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}
	membership, err := app.Storage().JoinCommunity(r.Context(), chi.URLParam(r, "communityID"), req.UserID)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, membership, app)
}

func HandleGetCommunityMembers(w http.ResponseWriter, r *http.Request, app App) {
	members, err := app.Storage().GetCommunityMembers(r.Context(), chi.URLParam(r, "communityID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, members, app)
}

// --- Events ---

func HandleGetEvents(w http.ResponseWriter, r *http.Request, app App) {
	events, err := app.Storage().GetEvents(r.Context())
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, events, app)
}

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedBy   string    `json:"created_by"`
}

func HandleCreateEvent(w http.ResponseWriter, r *http.Request, app App) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.CreatedBy == "" {
		respondBadRequest(w, app, "title and created_by are required")
		return
	}
	if req.StartsAt.IsZero() {
		respondBadRequest(w, app, "starts_at is required")
		return
	}
	event, err := app.Storage().CreateEvent(r.Context(), models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, event, app)
}

func HandleAttendEvent(w http.ResponseWriter, r *http.Request, app App) {
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}
	attendance, err := app.Storage().AttendEvent(r.Context(), chi.URLParam(r, "eventID"), req.UserID)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, attendance, app)
}

func HandleGetEventAttendees(w http.ResponseWriter, r *http.Request, app App) {
	attendees, err := app.Storage().GetEventAttendees(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, attendees, app)
}
