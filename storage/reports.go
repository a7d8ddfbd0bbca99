// minber/storage/reports.go
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"minber/database"
	"minber/models"
	"minber/utils"

	"github.com/google/uuid"
)

// ReportLifecycle manages report records. Every report enters as
// pending regardless of what the caller filled in, and only moves
// through known statuses from there.
type ReportLifecycle struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewReportLifecycle(logger *slog.Logger, now func() time.Time) *ReportLifecycle {
	if now == nil {
		now = utils.GetSQLTime
	}
	return &ReportLifecycle{logger: logger, now: now}
}

// Create stores a new report in pending status.
func (rl *ReportLifecycle) Create(ctx context.Context, db database.Adapter, report models.Report) (*models.Report, error) {
	if report.ReporterID == "" || report.ReportedUserID == "" {
		return nil, fmt.Errorf("report requires a reporter and a reported user")
	}
	if report.Target != nil && !report.Target.Valid() {
		return nil, fmt.Errorf("invalid report target")
	}

	var postID, requestID any
	if report.Target != nil {
		postID, requestID = targetValues(*report.Target)
	}
	now := rl.now()
	row, err := db.Insert(ctx, "reports", database.Row{
		"id":               uuid.New().String(),
		"reporter_id":      report.ReporterID,
		"reported_user_id": report.ReportedUserID,
		"post_id":          postID,
		"request_id":       requestID,
		"reason":           report.Reason,
		"status":           models.ReportPending,
		"admin_notes":      "",
		"created_at":       now,
		"updated_at":       now,
	})
	if err != nil {
		return nil, err
	}
	created := reportFromRow(row)
	rl.logger.Info("Report created", "report_id", created.ID, "reported_user", report.ReportedUserID)
	return &created, nil
}

// UpdateStatus moves a report to a new status and records admin notes.
// Returns (nil, nil) when no report with the given id exists.
func (rl *ReportLifecycle) UpdateStatus(ctx context.Context, db database.Adapter, id, status, adminNotes string) (*models.Report, error) {
	if !models.ValidReportStatus(status) {
		return nil, fmt.Errorf("unknown report status %q", status)
	}
	row, err := db.Update(ctx, "reports", id, database.Row{
		"status":      status,
		"admin_notes": adminNotes,
		"updated_at":  rl.now(),
	})
	if err != nil || row == nil {
		return nil, err
	}
	updated := reportFromRow(row)
	return &updated, nil
}

// List returns reports newest first, each joined with its participants
// and referenced content. Lookups after the main query are batched
// through a per-call user cache so repeat reporters are fetched once.
func (rl *ReportLifecycle) List(ctx context.Context, db database.Adapter, limit int) ([]models.ReportDetail, error) {
	rows, err := db.Query(ctx, "reports", nil, "created_at", true, limit)
	if err != nil {
		return nil, err
	}

	users := map[string]models.User{}
	lookupUser := func(id string) (models.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		row, err := db.Get(ctx, "users", id)
		if err != nil {
			return models.User{}, err
		}
		var u models.User
		if row != nil {
			u = userFromRow(row)
		}
		users[id] = u
		return u, nil
	}

	details := make([]models.ReportDetail, 0, len(rows))
	for _, r := range rows {
		report := reportFromRow(r)
		d := models.ReportDetail{Report: report}

		if d.Reporter, err = lookupUser(report.ReporterID); err != nil {
			return nil, err
		}
		if d.ReportedUser, err = lookupUser(report.ReportedUserID); err != nil {
			return nil, err
		}

		if report.Target != nil {
			switch report.Target.Kind {
			case models.TargetPost:
				row, err := db.Get(ctx, "posts", report.Target.ID)
				if err != nil {
					return nil, err
				}
				if row != nil {
					p := postFromRow(row)
					d.Post = &p
				}
			case models.TargetRequest:
				row, err := db.Get(ctx, "prayer_requests", report.Target.ID)
				if err != nil {
					return nil, err
				}
				if row != nil {
					pr := requestFromRow(row)
					d.Request = &pr
				}
			}
		}
		details = append(details, d)
	}
	return details, nil
}
