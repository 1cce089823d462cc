package services

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
)

func newJoinFixture(t *testing.T, db *gorm.DB, dir *fakeDirectory) (*JoinService, *MembershipService) {
	t.Helper()
	members := NewMembershipService(db)
	groups := NewGroupService(db, testMerchant)
	var resolver *IdentityResolver
	if dir != nil {
		resolver = NewIdentityResolver(db, dir)
	} else {
		resolver = NewIdentityResolver(db, nil)
	}
	return NewJoinService(db, groups, resolver, members), members
}

func TestJoinByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("joins with a valid code", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newJoinFixture(t, db, newFakeDirectory())
		group, _ := createTestGroup(t, db, "owner@example.com", 6)

		member, err := svc.JoinByCode(ctx, group.InviteCode, "a@example.com", "", 0)
		if err != nil {
			t.Fatalf("JoinByCode failed: %v", err)
		}
		if member == nil {
			t.Fatal("expected a membership")
		}
		if member.Role != models.MemberRoleMember || member.Status != models.MemberStatusActive {
			t.Errorf("unexpected member state: %s/%s", member.Role, member.Status)
		}
		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Errorf("expected counter 2, got %d", got)
		}
	})

	t.Run("joining twice with the same email is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newJoinFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner@example.com", 6)

		first, err := svc.JoinByCode(ctx, group.InviteCode, "a@example.com", "", 0)
		if err != nil || first == nil {
			t.Fatalf("first join failed: member=%v err=%v", first, err)
		}

		second, err := svc.JoinByCode(ctx, group.InviteCode, "a@example.com", "", 0)
		if err != nil {
			t.Fatalf("second join errored: %v", err)
		}
		if second != nil {
			t.Error("expected nil on re-join")
		}

		var rows int64
		db.Model(&models.GroupMember{}).
			Where("group_id = ? AND email = ?", group.ID, "a@example.com").
			Count(&rows)
		if rows != 1 {
			t.Errorf("expected 1 membership row, got %d", rows)
		}
		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Errorf("counter moved on re-join: %d", got)
		}
	})

	t.Run("capacity scenario: two-slot group", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newJoinFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner@example.com", 2)

		a, err := svc.JoinByCode(ctx, group.InviteCode, "a@example.com", "", 0)
		if err != nil || a == nil {
			t.Fatalf("A's join failed: member=%v err=%v", a, err)
		}
		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Fatalf("expected counter 2 after A, got %d", got)
		}

		b, err := svc.JoinByCode(ctx, group.InviteCode, "b@example.com", "", 0)
		if err != nil {
			t.Fatalf("B's join errored: %v", err)
		}
		if b != nil {
			t.Error("expected nil for B, group is full")
		}
		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Errorf("counter changed on refused join: %d", got)
		}
	})

	t.Run("unknown code and inactive group", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newJoinFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner@example.com", 6)

		if m, err := svc.JoinByCode(ctx, "FFFFFFFFFFFFFFFF", "a@example.com", "", 0); err != nil || m != nil {
			t.Errorf("expected nil for unknown code, got %v err=%v", m, err)
		}

		db.Model(&models.Group{}).Where("id = ?", group.ID).
			Update("status", models.GroupStatusSuspended)
		if m, err := svc.JoinByCode(ctx, group.InviteCode, "a@example.com", "", 0); err != nil || m != nil {
			t.Errorf("expected nil for suspended group, got %v err=%v", m, err)
		}
	})

	t.Run("rejoin after removal reactivates the old row", func(t *testing.T) {
		db := setupTestDB(t)
		svc, members := newJoinFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner@example.com", 6)

		first, err := svc.JoinByCode(ctx, group.InviteCode, "back@example.com", "", 0)
		if err != nil || first == nil {
			t.Fatalf("join failed: member=%v err=%v", first, err)
		}
		if ok, _ := members.RemoveMember(first.ID); !ok {
			t.Fatal("removal should succeed")
		}

		again, err := svc.JoinByCode(ctx, group.InviteCode, "back@example.com", "", 0)
		if err != nil {
			t.Fatalf("rejoin failed: %v", err)
		}
		if again == nil {
			t.Fatal("expected the rejoin to succeed")
		}
		if again.ID != first.ID {
			t.Errorf("expected the removed row %d to be reactivated, got new row %d", first.ID, again.ID)
		}
		if again.Status != models.MemberStatusActive {
			t.Errorf("expected active status, got %q", again.Status)
		}
		if got := groupCounter(t, db, group.ID); got != 2 {
			t.Errorf("expected counter 2 after rejoin, got %d", got)
		}
	})

	t.Run("code lookup is case-insensitive", func(t *testing.T) {
		db := setupTestDB(t)
		svc, _ := newJoinFixture(t, db, nil)
		group, _ := createTestGroup(t, db, "owner@example.com", 6)

		member, err := svc.JoinByCode(ctx, strings.ToLower(group.InviteCode), "a@example.com", "", 0)
		if err != nil || member == nil {
			t.Fatalf("join with lowercased code failed: member=%v err=%v", member, err)
		}
	})
}
