package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
)

// JoinService is the code-redemption path: anyone holding a group's invite
// code may join, gated only on group status, capacity and the email not
// already being an active member. There is no invitation row, no token and
// no expiry on this path.
type JoinService struct {
	db       *gorm.DB
	groups   *GroupService
	resolver *IdentityResolver
	members  *MembershipService
}

func NewJoinService(db *gorm.DB, groups *GroupService, resolver *IdentityResolver, members *MembershipService) *JoinService {
	return &JoinService{db: db, groups: groups, resolver: resolver, members: members}
}

// JoinByCode redeems an invite code for the email. Nil outcomes: unknown
// code, group not active or full, or the email already holds an active
// membership (re-joining is an idempotent no-op, not an error).
func (s *JoinService) JoinByCode(ctx context.Context, code, email, customerID string, userID uint) (*models.GroupMember, error) {
	email = strings.ToLower(email)

	group, err := s.groups.GetGroupByInviteCode(code)
	if err != nil {
		return nil, err
	}
	if group == nil {
		slog.Info("join refused, unknown invite code")
		return nil, nil
	}
	if group.Status != models.GroupStatusActive {
		slog.Info("join refused, group not active", "group_id", group.ID, "status", group.Status)
		return nil, nil
	}

	active, err := hasActiveMember(s.db, group.ID, email)
	if err != nil {
		return nil, err
	}
	if active {
		slog.Info("join is a no-op, already an active member", "group_id", group.ID, "email", email)
		return nil, nil
	}

	if group.CurrentMembers >= group.MaxMembers {
		slog.Info("join refused, group full", "group_id", group.ID)
		return nil, nil
	}

	if customerID == "" {
		customerID = s.resolver.EnsureCustomer(ctx, email, "", "")
	}
	user, err := s.resolver.Resolve(email, customerID, userID)
	if err != nil {
		return nil, err
	}

	var member *models.GroupMember
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var custPtr *string
		if customerID != "" {
			custPtr = &customerID
		}
		m, err := addOrReactivateMember(tx, group, email, custPtr, &user.ID, nil)
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		if errors.Is(err, errGroupFull) {
			slog.Info("join lost the last slot", "group_id", group.ID)
			return nil, nil
		}
		return nil, err
	}

	// The membership is already committed; a failed counter reconcile is
	// repairable later and must not be reported as a failed join.
	if _, err := s.members.ReconcileMemberCount(group.ID); err != nil {
		slog.Warn("member counter reconcile failed after join", "group_id", group.ID, "error", err)
	}

	slog.Info("joined by code", "group_id", group.ID, "member_id", member.ID)
	return member, nil
}
