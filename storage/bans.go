// minber/storage/bans.go
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

// BanRegistry owns the ban lifecycle. "Currently banned" is always
// derived at call time from the stored ban records, never cached, so a
// temporary ban lapses on its own once the expiry passes.
type BanRegistry struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewBanRegistry(logger *slog.Logger, now func() time.Time) *BanRegistry {
	if now == nil {
		now = utils.GetSQLTime
	}
	return &BanRegistry{logger: logger, now: now}
}

// Record stores a new ban. No deduplication: overlapping bans may
// coexist and the banned predicate ORs over all of them.
func (br *BanRegistry) Record(ctx context.Context, db database.Adapter, ban models.Ban) (*models.Ban, error) {
	if ban.UserID == "" {
		return nil, fmt.Errorf("ban requires a user id")
	}
	if ban.Type != models.BanTemporary && ban.Type != models.BanPermanent {
		return nil, fmt.Errorf("unknown ban type %q", ban.Type)
	}
	if ban.Type == models.BanTemporary && ban.ExpiresAt == nil {
		return nil, fmt.Errorf("temporary ban requires an expiry")
	}

	var expires any
	if ban.ExpiresAt != nil {
		expires = ban.ExpiresAt.UTC()
	}
	row, err := db.Insert(ctx, "user_bans", database.Row{
		"id":         uuid.New().String(),
		"user_id":    ban.UserID,
		"reason":     ban.Reason,
		"ban_type":   ban.Type,
		"expires_at": expires,
		"is_active":  true,
		"created_at": br.now(),
	})
	if err != nil {
		return nil, err
	}
	created := banFromRow(row)
	br.logger.Info("Ban recorded", "user_id", ban.UserID, "type", ban.Type)
	return &created, nil
}

// List returns all ban records for a user, newest first.
func (br *BanRegistry) List(ctx context.Context, db database.Adapter, userID string) ([]models.Ban, error) {
	rows, err := db.Query(ctx, "user_bans", database.Row{"user_id": userID}, "created_at", true, 0)
	if err != nil {
		return nil, err
	}
	bans := make([]models.Ban, 0, len(rows))
	for _, r := range rows {
		bans = append(bans, banFromRow(r))
	}
	return bans, nil
}

// ActiveBan returns the ban currently restricting a user, or nil. A
// permanent ban wins over any temporary one; among temporary bans the
// latest expiry is reported.
func (br *BanRegistry) ActiveBan(ctx context.Context, db database.Adapter, userID string) (*models.Ban, error) {
	rows, err := db.Query(ctx, "user_bans", database.Row{"user_id": userID, "is_active": true}, "created_at", true, 0)
	if err != nil {
		return nil, err
	}

	now := br.now()
	var best *models.Ban
	for _, r := range rows {
		ban := banFromRow(r)
		switch {
		case ban.Type == models.BanPermanent:
			return &ban, nil
		case ban.ExpiresAt != nil && ban.ExpiresAt.After(now):
			if best == nil || ban.ExpiresAt.After(*best.ExpiresAt) {
				b := ban
				best = &b
			}
		}
	}
	return best, nil
}

// IsBanned is the derived currently-banned predicate.
func (br *BanRegistry) IsBanned(ctx context.Context, db database.Adapter, userID string) (bool, error) {
	ban, err := br.ActiveBan(ctx, db, userID)
	if err != nil {
		return false, err
	}
	return ban != nil, nil
}
