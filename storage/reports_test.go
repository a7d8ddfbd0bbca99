// minber/storage/reports_test.go
package storage

import (
	"context"
	"testing"

	"minber/models"
)

func TestCreateReportAlwaysPending(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()

	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")

	lifecycle := NewReportLifecycle(discardLogger(), nil)

	// A caller-supplied status is ignored.
	report, err := lifecycle.Create(ctx, adapter, models.Report{
		ReporterID:     alice.ID,
		ReportedUserID: bob.ID,
		Reason:         "harassment",
		Status:         models.ReportResolved,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if report.Status != models.ReportPending {
		t.Errorf("Expected pending status, got %s", report.Status)
	}
	if report.ID == "" {
		t.Error("Expected an assigned report id")
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()

	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")

	lifecycle := NewReportLifecycle(discardLogger(), nil)
	report, err := lifecycle.Create(ctx, adapter, models.Report{
		ReporterID: alice.ID, ReportedUserID: bob.ID, Reason: "spam",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := lifecycle.UpdateStatus(ctx, adapter, report.ID, models.ReportResolved, "user warned")
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != models.ReportResolved {
		t.Errorf("Expected resolved, got %s", updated.Status)
	}
	if updated.AdminNotes != "user warned" {
		t.Errorf("Expected admin notes to be stored, got %q", updated.AdminNotes)
	}

	if _, err := lifecycle.UpdateStatus(ctx, adapter, report.ID, "escalated", ""); err == nil {
		t.Error("Expected error for unknown status")
	}

	missing, err := lifecycle.UpdateStatus(ctx, adapter, "no-such-report", models.ReportDismissed, "")
	if err != nil {
		t.Fatalf("UpdateStatus on missing report errored: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing report, got %+v", missing)
	}
}

func TestListJoinsParticipantsAndContent(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()

	alice := seedUser(t, svc, "alice")
	bob := seedUser(t, svc, "bob")
	post := seedPost(t, svc, bob.ID, "reported content")

	lifecycle := NewReportLifecycle(discardLogger(), nil)
	target := models.PostTarget(post.ID)
	if _, err := lifecycle.Create(ctx, adapter, models.Report{
		ReporterID:     alice.ID,
		ReportedUserID: bob.ID,
		Target:         &target,
		Reason:         "spam",
	}); err != nil {
		t.Fatalf("Create with target failed: %v", err)
	}
	if _, err := lifecycle.Create(ctx, adapter, models.Report{
		ReporterID:     alice.ID,
		ReportedUserID: bob.ID,
		Reason:         "profile abuse",
	}); err != nil {
		t.Fatalf("Create without target failed: %v", err)
	}

	details, err := lifecycle.List(ctx, adapter, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(details))
	}

	for _, d := range details {
		if d.Reporter.Username != "alice" {
			t.Errorf("Expected reporter alice, got %q", d.Reporter.Username)
		}
		if d.ReportedUser.Username != "bob" {
			t.Errorf("Expected reported user bob, got %q", d.ReportedUser.Username)
		}
		if d.Target != nil {
			if d.Post == nil || d.Post.ID != post.ID {
				t.Error("Expected the reported post to be attached")
			}
		} else if d.Post != nil || d.Request != nil {
			t.Error("Report without target must not attach content")
		}
	}
}

func TestCreateReportValidation(t *testing.T) {
	svc, adapter := setupTestService(t)
	ctx := context.Background()
	alice := seedUser(t, svc, "alice")

	lifecycle := NewReportLifecycle(discardLogger(), nil)

	if _, err := lifecycle.Create(ctx, adapter, models.Report{
		ReporterID: alice.ID, Reason: "x",
	}); err == nil {
		t.Error("Expected error for missing reported user")
	}

	bad := models.TargetRef{Kind: "thread", ID: "t1"}
	if _, err := lifecycle.Create(ctx, adapter, models.Report{
		ReporterID: alice.ID, ReportedUserID: alice.ID, Target: &bad, Reason: "x",
	}); err == nil {
		t.Error("Expected error for invalid target kind")
	}
}
