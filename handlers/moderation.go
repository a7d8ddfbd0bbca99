// minber/handlers/moderation.go

package handlers

import (
	"net/http"
	"strings"
	"time"

	"minber/config"
	"minber/models"

	"github.com/go-chi/chi/v5"
)

// --- Reports ---

type createReportRequest struct {
	ReporterID     string            `json:"reporter_id"`
	ReportedUserID string            `json:"reported_user_id"`
	Target         *models.TargetRef `json:"target"`
	Reason         string            `json:"reason"`
}

func HandleCreateReport(w http.ResponseWriter, r *http.Request, app App) {
	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.ReporterID == "" || req.ReportedUserID == "" {
		respondBadRequest(w, app, "reporter_id and reported_user_id are required")
		return
	}
	if req.Reason == "" || len(req.Reason) > config.MaxReasonLen {
		respondBadRequest(w, app, "Reason is required and must be at most 500 characters")
		return
	}
	if req.Target != nil && !req.Target.Valid() {
		respondBadRequest(w, app, "Invalid report target")
		return
	}
	report, err := app.Storage().CreateReport(r.Context(), models.Report{
		ReporterID:     req.ReporterID,
		ReportedUserID: req.ReportedUserID,
		Target:         req.Target,
		Reason:         req.Reason,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, report, app)
}

func HandleGetReports(w http.ResponseWriter, r *http.Request, app App) {
	reports, err := app.Storage().GetReports(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, reports, app)
}

type updateReportRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func HandleUpdateReport(w http.ResponseWriter, r *http.Request, app App) {
	var req updateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	if !models.ValidReportStatus(req.Status) {
		respondBadRequest(w, app, "Unknown report status")
		return
	}
	report, err := app.Storage().UpdateReportStatus(r.Context(), chi.URLParam(r, "reportID"), req.Status, req.AdminNotes)
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	if report == nil {
		respondNotFound(w, app)
		return
	}
	respondJSON(w, http.StatusOK, report, app)
}

// --- Bans ---

type banRequest struct {
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason"`
	Type      string     `json:"type"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func HandleBanUser(w http.ResponseWriter, r *http.Request, app App) {
	var req banRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, app, "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, app, "user_id is required")
		return
	}
	if req.Type != models.BanTemporary && req.Type != models.BanPermanent {
		respondBadRequest(w, app, "type must be temporary or permanent")
		return
	}
	if req.Type == models.BanTemporary && req.ExpiresAt == nil {
		respondBadRequest(w, app, "expires_at is required for temporary bans")
		return
	}
	ban, err := app.Storage().RecordBan(r.Context(), models.Ban{
		UserID:    req.UserID,
		Reason:    req.Reason,
		Type:      req.Type,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusCreated, ban, app)
}

func HandleListBans(w http.ResponseWriter, r *http.Request, app App) {
	bans, err := app.Storage().ListBans(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, bans, app)
}

func HandleBanStatus(w http.ResponseWriter, r *http.Request, app App) {
	banned, err := app.Storage().IsBanned(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"banned": banned}, app)
}
