// minber/storage/bans_test.go
package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"minber/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestTemporaryBanExpires(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := NewBanRegistry(discardLogger(), func() time.Time { return clock })

	expires := clock.Add(24 * time.Hour)
	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID:    user.ID,
		Reason:    "spam",
		Type:      models.BanTemporary,
		ExpiresAt: &expires,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	banned, err := registry.IsBanned(ctx, adapter, user.ID)
	if err != nil {
		t.Fatalf("IsBanned failed: %v", err)
	}
	if !banned {
		t.Error("Expected user to be banned before expiry")
	}

	// The same record stops binding once the clock passes the expiry.
	clock = expires.Add(time.Minute)
	banned, err = registry.IsBanned(ctx, adapter, user.ID)
	if err != nil {
		t.Fatalf("IsBanned after expiry failed: %v", err)
	}
	if banned {
		t.Error("Expected ban to lapse after expiry")
	}
}

func TestPermanentBanNeverExpires(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := NewBanRegistry(discardLogger(), func() time.Time { return clock })

	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID,
		Reason: "abuse",
		Type:   models.BanPermanent,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	clock = clock.AddDate(10, 0, 0)
	ban, err := registry.ActiveBan(ctx, adapter, user.ID)
	if err != nil {
		t.Fatalf("ActiveBan failed: %v", err)
	}
	if ban == nil {
		t.Fatal("Expected permanent ban to remain active")
	}
	if ban.ExpiresAt != nil {
		t.Error("Permanent ban must not carry an expiry")
	}
}

func TestPermanentBanWinsOverTemporary(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := NewBanRegistry(discardLogger(), func() time.Time { return clock })

	expires := clock.Add(time.Hour)
	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID, Reason: "spam", Type: models.BanTemporary, ExpiresAt: &expires,
	}); err != nil {
		t.Fatalf("Record temporary failed: %v", err)
	}
	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID, Reason: "abuse", Type: models.BanPermanent,
	}); err != nil {
		t.Fatalf("Record permanent failed: %v", err)
	}

	ban, err := registry.ActiveBan(ctx, adapter, user.ID)
	if err != nil {
		t.Fatalf("ActiveBan failed: %v", err)
	}
	if ban == nil || ban.Type != models.BanPermanent {
		t.Errorf("Expected the permanent ban to be reported, got %+v", ban)
	}
}

func TestRecordValidation(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice")

	registry := NewBanRegistry(discardLogger(), nil)

	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID, Type: models.BanTemporary,
	}); err == nil {
		t.Error("Expected error for temporary ban without expiry")
	}
	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID, Type: "indefinite",
	}); err == nil {
		t.Error("Expected error for unknown ban type")
	}
}

func TestListReturnsAllRecords(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := NewBanRegistry(discardLogger(), func() time.Time { return clock })

	expired := clock.Add(-time.Hour)
	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID, Reason: "old", Type: models.BanTemporary, ExpiresAt: &expired,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := registry.Record(ctx, adapter, models.Ban{
		UserID: user.ID, Reason: "current", Type: models.BanPermanent,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	bans, err := registry.List(ctx, adapter, user.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bans) != 2 {
		t.Errorf("Expected both ban records in history, got %d", len(bans))
	}
}
