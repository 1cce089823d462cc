package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
)

const defaultInviteExpiryDays = 7

// InvitationService owns the invitation lifecycle: issuance, token lookup,
// lazy expiry, acceptance and revocation.
type InvitationService struct {
	db       *gorm.DB
	resolver *IdentityResolver
	members  *MembershipService
}

func NewInvitationService(db *gorm.DB, resolver *IdentityResolver, members *MembershipService) *InvitationService {
	return &InvitationService{db: db, resolver: resolver, members: members}
}

// CreateInvitation issues a pending invitation for the email. A nil result
// means a precondition failed: group missing or not active, group full,
// email already an active member, or an open invitation already out for it.
func (s *InvitationService) CreateInvitation(groupID uint, email string, expiresInDays int) (*models.GroupInvitation, error) {
	email = strings.ToLower(email)

	var group models.Group
	if err := s.db.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if group.Status != models.GroupStatusActive {
		slog.Info("invitation refused, group not active", "group_id", groupID, "status", group.Status)
		return nil, nil
	}

	// The cached counter may drift; recompute before trusting it.
	current, err := s.members.ReconcileMemberCount(groupID)
	if err != nil {
		return nil, err
	}
	if current >= group.MaxMembers {
		slog.Info("invitation refused, group full", "group_id", groupID, "members", current)
		return nil, nil
	}

	active, err := hasActiveMember(s.db, groupID, email)
	if err != nil {
		return nil, err
	}
	if active {
		slog.Info("invitation refused, already a member", "group_id", groupID, "email", email)
		return nil, nil
	}

	var open int64
	err = s.db.Model(&models.GroupInvitation{}).
		Where("group_id = ? AND email = ? AND status = ? AND expires_at > ?",
			groupID, email, models.InvitationStatusPending, time.Now()).
		Count(&open).Error
	if err != nil {
		return nil, err
	}
	if open > 0 {
		slog.Info("invitation refused, one already pending", "group_id", groupID, "email", email)
		return nil, nil
	}

	token, err := GenerateVerificationToken()
	if err != nil {
		return nil, err
	}

	if expiresInDays <= 0 {
		expiresInDays = defaultInviteExpiryDays
	}
	now := time.Now()
	invitation := models.GroupInvitation{
		GroupID:   groupID,
		Email:     email,
		Token:     token,
		Status:    models.InvitationStatusPending,
		ExpiresAt: now.AddDate(0, 0, expiresInDays),
		SentAt:    &now,
	}
	if err := s.db.Create(&invitation).Error; err != nil {
		return nil, err
	}

	slog.Info("invitation created", "group_id", groupID, "email", email,
		"expires_at", invitation.ExpiresAt)
	return &invitation, nil
}

// LookupByToken returns nil when no invitation carries the token.
func (s *InvitationService) LookupByToken(token string) (*models.GroupInvitation, error) {
	var invitation models.GroupInvitation
	err := s.db.Where("token = ?", token).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invitation, nil
}

// IsExpired checks the deadline regardless of the stored status: an
// invitation past expires_at is expired even while the row still reads
// pending.
func (s *InvitationService) IsExpired(invitation *models.GroupInvitation) bool {
	return time.Now().After(invitation.ExpiresAt)
}

// AcceptInvitation turns a pending invitation into an active membership.
// Nil outcomes: unknown token, invitation no longer pending, invitation
// expired (persisted as such), group gone/inactive/full. The external
// customer linkage is best-effort; only the internal user row is mandatory.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token, customerID string, userID uint) (*models.GroupMember, error) {
	invitation, err := s.LookupByToken(token)
	if err != nil {
		return nil, err
	}
	if invitation == nil || invitation.Status != models.InvitationStatusPending {
		return nil, nil
	}

	if s.IsExpired(invitation) {
		if err := s.db.Model(&models.GroupInvitation{}).
			Where("id = ?", invitation.ID).
			Update("status", models.InvitationStatusExpired).Error; err != nil {
			return nil, err
		}
		slog.Info("invitation expired at acceptance", "invitation_id", invitation.ID)
		return nil, nil
	}

	var group models.Group
	if err := s.db.First(&group, invitation.GroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if group.Status != models.GroupStatusActive {
		slog.Info("acceptance refused, group not active", "group_id", group.ID)
		return nil, nil
	}
	if group.CurrentMembers >= group.MaxMembers {
		slog.Info("acceptance refused, group full", "group_id", group.ID)
		return nil, nil
	}

	// External linkage first (outside the transaction, degrades to "").
	if customerID == "" {
		customerID = s.resolver.EnsureCustomer(ctx, invitation.Email, "", "")
	}
	user, err := s.resolver.Resolve(invitation.Email, customerID, userID)
	if err != nil {
		return nil, err
	}

	var member *models.GroupMember
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var custPtr *string
		if customerID != "" {
			custPtr = &customerID
		}
		m, err := addOrReactivateMember(tx, &group, invitation.Email, custPtr, &user.ID, nil)
		if err != nil {
			return err
		}
		member = m

		return tx.Model(&models.GroupInvitation{}).
			Where("id = ?", invitation.ID).
			Updates(map[string]interface{}{
				"status":      models.InvitationStatusAccepted,
				"accepted_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, errGroupFull) {
			slog.Info("acceptance lost the last slot", "group_id", group.ID)
			return nil, nil
		}
		return nil, err
	}

	// The membership is already committed; a failed counter reconcile is
	// repairable later and must not be reported as a failed acceptance.
	if _, err := s.members.ReconcileMemberCount(group.ID); err != nil {
		slog.Warn("member counter reconcile failed after acceptance", "group_id", group.ID, "error", err)
	}

	slog.Info("invitation accepted", "invitation_id", invitation.ID,
		"group_id", group.ID, "member_id", member.ID)
	return member, nil
}

// RevokeInvitation withdraws a pending invitation. Returns false when the
// invitation is unknown or already terminal.
func (s *InvitationService) RevokeInvitation(id uint) (bool, error) {
	res := s.db.Model(&models.GroupInvitation{}).
		Where("id = ? AND status = ?", id, models.InvitationStatusPending).
		Update("status", models.InvitationStatusRevoked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListGroupInvitations returns every invitation of a group, newest first.
func (s *InvitationService) ListGroupInvitations(groupID uint) ([]models.GroupInvitation, error) {
	var invitations []models.GroupInvitation
	err := s.db.Where("group_id = ?", groupID).
		Order("created_at desc").
		Find(&invitations).Error
	return invitations, err
}
