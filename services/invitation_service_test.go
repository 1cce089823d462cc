package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
)

func newInvitationFixture(t *testing.T, db *gorm.DB, dir *fakeDirectory) (*InvitationService, *MembershipService) {
	t.Helper()
	members := NewMembershipService(db)
	var resolver *IdentityResolver
	if dir != nil {
		resolver = NewIdentityResolver(db, dir)
	} else {
		resolver = NewIdentityResolver(db, nil)
	}
	return NewInvitationService(db, resolver, members), members
}

func TestCreateInvitation(t *testing.T) {
	t.Run("creates a pending invitation", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "inviter@example.com", 6)

		inv, err := svc.CreateInvitation(group.ID, "x@example.com", 7)
		if err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if inv == nil {
			t.Fatal("expected an invitation")
		}
		if inv.Status != models.InvitationStatusPending {
			t.Errorf("expected pending, got %q", inv.Status)
		}
		if len(inv.Token) != 64 {
			t.Errorf("expected 256-bit hex token, got %d chars", len(inv.Token))
		}
		if inv.SentAt == nil {
			t.Error("expected sent_at to be set")
		}
		wantExpiry := time.Now().AddDate(0, 0, 7)
		if inv.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || inv.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
			t.Errorf("expires_at off: %v", inv.ExpiresAt)
		}
	})

	t.Run("refuses when group is full", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "full@example.com", 1) // owner takes the only slot

		inv, err := svc.CreateInvitation(group.ID, "late@example.com", 7)
		if err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if inv != nil {
			t.Error("expected nil for a full group")
		}
	})

	t.Run("refuses an active member's email", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "own@example.com", 6)

		inv, err := svc.CreateInvitation(group.ID, "own@example.com", 7)
		if err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if inv != nil {
			t.Error("expected nil for an email that is already an active member")
		}
	})

	t.Run("refuses a duplicate pending invitation", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "dup@example.com", 6)

		if inv, _ := svc.CreateInvitation(group.ID, "x@example.com", 7); inv == nil {
			t.Fatal("first invitation should succeed")
		}
		inv, err := svc.CreateInvitation(group.ID, "x@example.com", 7)
		if err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if inv != nil {
			t.Error("expected nil while one is still pending")
		}
	})

	t.Run("refuses inactive groups and unknown groups", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "susp@example.com", 6)
		db.Model(&models.Group{}).Where("id = ?", group.ID).
			Update("status", models.GroupStatusSuspended)

		if inv, err := svc.CreateInvitation(group.ID, "x@example.com", 7); err != nil || inv != nil {
			t.Errorf("expected nil for suspended group, got %v err=%v", inv, err)
		}
		if inv, err := svc.CreateInvitation(99999, "x@example.com", 7); err != nil || inv != nil {
			t.Errorf("expected nil for unknown group, got %v err=%v", inv, err)
		}
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("full acceptance flow", func(t *testing.T) {
		db := setupTestDB(t)
		dir := newFakeDirectory()
		svc, _ := newInvitationFixture(t, db, dir)
		group, _ := createTestGroup(t, db, "owner1@example.com", 6)

		inv, _ := svc.CreateInvitation(group.ID, "x@example.com", 7)
		if inv == nil {
			t.Fatal("invitation should exist")
		}

		member, err := svc.AcceptInvitation(ctx, inv.Token, "", 0)
		if err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		if member == nil {
			t.Fatal("expected a membership")
		}
		if member.Status != models.MemberStatusActive || member.Role != models.MemberRoleMember {
			t.Errorf("unexpected member state: %s/%s", member.Role, member.Status)
		}
		if member.ShopifyCustomerID == nil || *member.ShopifyCustomerID == "" {
			t.Error("expected the directory link on the member row")
		}
		if member.UserID == nil {
			t.Error("expected an internal user to be created and linked")
		}

		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Errorf("expected counter 2, got %d", got)
		}

		var stored models.GroupInvitation
		db.First(&stored, inv.ID)
		if stored.Status != models.InvitationStatusAccepted {
			t.Errorf("expected accepted, got %q", stored.Status)
		}
		if stored.AcceptedAt == nil {
			t.Error("expected accepted_at to be set")
		}
	})

	t.Run("accepting twice is idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner2@example.com", 6)

		inv, _ := svc.CreateInvitation(group.ID, "x@example.com", 7)
		first, err := svc.AcceptInvitation(ctx, inv.Token, "", 0)
		if err != nil || first == nil {
			t.Fatalf("first acceptance failed: member=%v err=%v", first, err)
		}

		second, err := svc.AcceptInvitation(ctx, inv.Token, "", 0)
		if err != nil {
			t.Fatalf("second acceptance errored: %v", err)
		}
		if second != nil {
			t.Error("expected nil on an already-accepted token")
		}

		var rows int64
		db.Model(&models.GroupMember{}).
			Where("group_id = ? AND email = ?", group.ID, "x@example.com").
			Count(&rows)
		if rows != 1 {
			t.Errorf("expected 1 membership row, got %d", rows)
		}
		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Errorf("counter moved on the second call: %d", got)
		}
	})

	t.Run("expired invitation is persisted as expired", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner3@example.com", 6)

		inv, _ := svc.CreateInvitation(group.ID, "slow@example.com", 7)
		db.Model(&models.GroupInvitation{}).Where("id = ?", inv.ID).
			Update("expires_at", time.Now().Add(-time.Hour))

		member, err := svc.AcceptInvitation(ctx, inv.Token, "", 0)
		if err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		if member != nil {
			t.Error("expected nil for an expired invitation")
		}

		var stored models.GroupInvitation
		db.First(&stored, inv.ID)
		if stored.Status != models.InvitationStatusExpired {
			t.Errorf("expected the expiry to be persisted, got %q", stored.Status)
		}
	})

	t.Run("directory outage degrades to membership without link", func(t *testing.T) {
		db := setupTestDB(t)
		dir := newFakeDirectory()
		dir.fail = true
		svc, _ := newInvitationFixture(t, db, dir)
		group, _ := createTestGroup(t, db, "owner4@example.com", 6)

		inv, _ := svc.CreateInvitation(group.ID, "x@example.com", 7)
		member, err := svc.AcceptInvitation(ctx, inv.Token, "", 0)
		if err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		if member == nil {
			t.Fatal("the external outage must not block the membership grant")
		}
		if member.ShopifyCustomerID != nil {
			t.Error("expected no external link")
		}
		if member.UserID == nil {
			t.Error("internal user is mandatory even when the directory is down")
		}
	})

	t.Run("group gone inactive after issuance", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner5@example.com", 6)

		inv, _ := svc.CreateInvitation(group.ID, "x@example.com", 7)
		db.Model(&models.Group{}).Where("id = ?", group.ID).
			Update("status", models.GroupStatusTerminated)

		member, err := svc.AcceptInvitation(ctx, inv.Token, "", 0)
		if err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		if member != nil {
			t.Error("expected nil once the group is terminated")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newInvitationFixture(t, db, nil)

		member, err := svc.AcceptInvitation(ctx, "deadbeef", "", 0)
		if err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		if member != nil {
			t.Error("expected nil for an unknown token")
		}
	})
}

func TestRevokeInvitation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, _ := newInvitationFixture(t, db, nil)
	group, _ := createTestGroup(t, db, "revoker@example.com", 6)

	t.Run("revokes a pending invitation", func(t *testing.T) {
		inv, _ := svc.CreateInvitation(group.ID, "a@example.com", 7)
		ok, err := svc.RevokeInvitation(inv.ID)
		if err != nil || !ok {
			t.Fatalf("RevokeInvitation failed: ok=%v err=%v", ok, err)
		}

		var stored models.GroupInvitation
		db.First(&stored, inv.ID)
		if stored.Status != models.InvitationStatusRevoked {
			t.Errorf("expected revoked, got %q", stored.Status)
		}

		// The token is dead now.
		if member, _ := svc.AcceptInvitation(ctx, inv.Token, "", 0); member != nil {
			t.Error("revoked invitation must not be acceptable")
		}
	})

	t.Run("no-op on non-pending invitations", func(t *testing.T) {
		inv, _ := svc.CreateInvitation(group.ID, "b@example.com", 7)
		if member, _ := svc.AcceptInvitation(ctx, inv.Token, "", 0); member == nil {
			t.Fatal("acceptance should succeed")
		}

		if ok, _ := svc.RevokeInvitation(inv.ID); ok {
			t.Error("revoking an accepted invitation must fail")
		}
		if ok, _ := svc.RevokeInvitation(999999); ok {
			t.Error("revoking an unknown invitation must fail")
		}
	})
}

func TestIsExpired(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newInvitationFixture(t, db, nil)

	fresh := &models.GroupInvitation{ExpiresAt: time.Now().Add(time.Hour)}
	if svc.IsExpired(fresh) {
		t.Error("future expiry reported as expired")
	}

	// Status is ignored on purpose: a stale pending row is still expired.
	stale := &models.GroupInvitation{
		Status:    models.InvitationStatusPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if !svc.IsExpired(stale) {
		t.Error("past expiry reported as valid")
	}
}
