// minber/storage/toggle.go
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

// ToggleEngine implements the insert-on-first, remove-on-repeat
// semantics shared by likes and bookmarks. The read-then-write pair is
// not atomic; the partial unique indexes in the store are what keep the
// at-most-one-reaction invariant under concurrent toggles, and a
// constraint rejection on the insert leg is folded into "already
// active" here.
type ToggleEngine struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewToggleEngine(logger *slog.Logger, now func() time.Time) *ToggleEngine {
	if now == nil {
		now = utils.GetSQLTime
	}
	return &ToggleEngine{logger: logger, now: now}
}

func reactionEntity(kind models.ReactionKind) (string, error) {
	switch kind {
	case models.ReactionLike:
		return "likes", nil
	case models.ReactionBookmark:
		return "bookmarks", nil
	}
	return "", fmt.Errorf("unknown reaction kind %q", kind)
}

// Toggle flips the reaction state for (kind, user, target) and reports
// whether the reaction is active afterwards.
func (te *ToggleEngine) Toggle(ctx context.Context, db database.Adapter, kind models.ReactionKind, userID string, target models.TargetRef) (bool, error) {
	entity, err := reactionEntity(kind)
	if err != nil {
		return false, err
	}
	if !target.Valid() {
		return false, fmt.Errorf("invalid reaction target")
	}

	existing, err := db.Query(ctx, entity, targetFilter(userID, target), "", false, 1)
	if err != nil {
		return false, err
	}

	if len(existing) > 0 {
		deleted, err := db.Delete(ctx, entity, rowString(existing[0], "id"))
		if err != nil {
			return false, err
		}
		if !deleted {
			// Raced with another remove; the end state is the same.
			te.logger.Debug("Reaction already removed", "kind", kind, "user_id", userID)
		}
		return false, nil
	}

	postID, requestID := targetValues(target)
	_, err = db.Insert(ctx, entity, database.Row{
		"id":         uuid.New().String(),
		"user_id":    userID,
		"post_id":    postID,
		"request_id": requestID,
		"created_at": te.now(),
	})
	if err != nil {
		if database.IsConstraintError(err) {
			// A concurrent toggle inserted first; the reaction is active.
			te.logger.Debug("Concurrent reaction insert detected", "kind", kind, "user_id", userID)
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// Has reports whether a reaction currently exists for (kind, user, target).
func (te *ToggleEngine) Has(ctx context.Context, db database.Adapter, kind models.ReactionKind, userID string, target models.TargetRef) (bool, error) {
	entity, err := reactionEntity(kind)
	if err != nil {
		return false, err
	}
	rows, err := db.Query(ctx, entity, targetFilter(userID, target), "", false, 1)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
