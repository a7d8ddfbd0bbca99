// minber/storage/rows.go
package storage

import (
	"encoding/json"
	"time"

	"minber/database"
	"minber/models"
)

// Row value coercion. The adapters normalize driver output, but SQLite
// and Postgres still disagree on booleans (int vs bool) and occasionally
// hand back datetimes as strings, so every read goes through these.

func rowString(r database.Row, key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

func rowBool(r database.Row, key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	return false
}

func rowTime(r database.Row, key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func rowTimePtr(r database.Row, key string) *time.Time {
	if r[key] == nil {
		return nil
	}
	t := rowTime(r, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// --- Tag encoding ---

// Tags are stored as a JSON array in a TEXT column so both backends
// share one representation. Order and duplicates are preserved.

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeTags(s string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// --- Target references ---

// targetValues returns the (post_id, request_id) pair for an insert.
func targetValues(t models.TargetRef) (postID, requestID any) {
	if t.Kind == models.TargetRequest {
		return nil, t.ID
	}
	return t.ID, nil
}

// targetFilter builds the lookup filter for a (user, target) pair.
func targetFilter(userID string, t models.TargetRef) database.Row {
	postID, requestID := targetValues(t)
	return database.Row{"user_id": userID, "post_id": postID, "request_id": requestID}
}

// targetFromRow reconstructs the tagged reference from the stored
// column pair, or nil when both are absent.
func targetFromRow(r database.Row) *models.TargetRef {
	if id := rowString(r, "post_id"); id != "" {
		t := models.PostTarget(id)
		return &t
	}
	if id := rowString(r, "request_id"); id != "" {
		t := models.RequestTarget(id)
		return &t
	}
	return nil
}

// --- Model converters ---

func userFromRow(r database.Row) models.User {
	return models.User{
		ID:           rowString(r, "id"),
		Username:     rowString(r, "username"),
		Email:        rowString(r, "email"),
		PasswordHash: rowString(r, "password_hash"),
		DisplayName:  rowString(r, "display_name"),
		AvatarURL:    rowString(r, "avatar_url"),
		Bio:          rowString(r, "bio"),
		IsVerified:   rowBool(r, "is_verified"),
		Role:         rowString(r, "role"),
		CreatedAt:    rowTime(r, "created_at"),
		UpdatedAt:    rowTime(r, "updated_at"),
	}
}

func postFromRow(r database.Row) models.Post {
	return models.Post{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		Content:   rowString(r, "content"),
		Type:      rowString(r, "type"),
		MediaURL:  rowString(r, "media_url"),
		Category:  rowString(r, "category"),
		Tags:      decodeTags(rowString(r, "tags")),
		CreatedAt: rowTime(r, "created_at"),
	}
}

func requestFromRow(r database.Row) models.PrayerRequest {
	return models.PrayerRequest{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		Content:   rowString(r, "content"),
		Category:  rowString(r, "category"),
		CreatedAt: rowTime(r, "created_at"),
	}
}

func commentFromRow(r database.Row) models.Comment {
	c := models.Comment{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		Content:   rowString(r, "content"),
		IsPrayer:  rowBool(r, "is_prayer"),
		CreatedAt: rowTime(r, "created_at"),
	}
	if t := targetFromRow(r); t != nil {
		c.Target = *t
	}
	return c
}

func reactionFromRow(r database.Row, kind models.ReactionKind) models.Reaction {
	re := models.Reaction{
		ID:        rowString(r, "id"),
		Kind:      kind,
		UserID:    rowString(r, "user_id"),
		CreatedAt: rowTime(r, "created_at"),
	}
	if t := targetFromRow(r); t != nil {
		re.Target = *t
	}
	return re
}

func communityFromRow(r database.Row) models.Community {
	return models.Community{
		ID:          rowString(r, "id"),
		Name:        rowString(r, "name"),
		Description: rowString(r, "description"),
		CreatedBy:   rowString(r, "created_by"),
		CreatedAt:   rowTime(r, "created_at"),
	}
}

func membershipFromRow(r database.Row) models.Membership {
	return models.Membership{
		ID:          rowString(r, "id"),
		CommunityID: rowString(r, "community_id"),
		UserID:      rowString(r, "user_id"),
		Role:        rowString(r, "role"),
		CreatedAt:   rowTime(r, "created_at"),
	}
}

func eventFromRow(r database.Row) models.Event {
	return models.Event{
		ID:          rowString(r, "id"),
		Title:       rowString(r, "title"),
		Description: rowString(r, "description"),
		Location:    rowString(r, "location"),
		StartsAt:    rowTime(r, "starts_at"),
		CreatedBy:   rowString(r, "created_by"),
		CreatedAt:   rowTime(r, "created_at"),
	}
}

func attendanceFromRow(r database.Row) models.Attendance {
	return models.Attendance{
		ID:        rowString(r, "id"),
		EventID:   rowString(r, "event_id"),
		UserID:    rowString(r, "user_id"),
		CreatedAt: rowTime(r, "created_at"),
	}
}

func reportFromRow(r database.Row) models.Report {
	return models.Report{
		ID:             rowString(r, "id"),
		ReporterID:     rowString(r, "reporter_id"),
		ReportedUserID: rowString(r, "reported_user_id"),
		Target:         targetFromRow(r),
		Reason:         rowString(r, "reason"),
		Status:         rowString(r, "status"),
		AdminNotes:     rowString(r, "admin_notes"),
		CreatedAt:      rowTime(r, "created_at"),
		UpdatedAt:      rowTime(r, "updated_at"),
	}
}

func banFromRow(r database.Row) models.Ban {
	return models.Ban{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		Reason:    rowString(r, "reason"),
		Type:      rowString(r, "ban_type"),
		ExpiresAt: rowTimePtr(r, "expires_at"),
		Active:    rowBool(r, "is_active"),
		CreatedAt: rowTime(r, "created_at"),
	}
}
