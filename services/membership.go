package services

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
)

// MembershipService owns the member rows of a group and the cached member
// counter on the group row.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// ListActiveMembers returns the members currently counted against the
// group's capacity.
func (s *MembershipService) ListActiveMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := s.db.
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Order("joined_at asc").
		Find(&members).Error
	return members, err
}

// ListAllMembers includes removed and inactive rows, for audit views.
func (s *MembershipService) ListAllMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := s.db.
		Where("group_id = ?", groupID).
		Order("created_at asc").
		Find(&members).Error
	return members, err
}

// ReconcileMemberCount recomputes current_members from the actual active
// rows and persists it. Idempotent; callers run it defensively before
// trusting the cached counter and after every membership mutation.
func (s *MembershipService) ReconcileMemberCount(groupID uint) (int, error) {
	var count int64
	if err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}

	if err := s.db.Model(&models.Group{}).
		Where("id = ?", groupID).
		Update("current_members", count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// RemoveMember transitions a member to "removed". Owner rows are never
// removable; the call is a no-op returning false for them and for unknown
// ids. Who may remove whom is the API layer's concern.
func (s *MembershipService) RemoveMember(memberID uint) (bool, error) {
	var member models.GroupMember
	if err := s.db.First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if member.Role == models.MemberRoleOwner {
		slog.Info("refusing to remove group owner", "member_id", memberID, "group_id", member.GroupID)
		return false, nil
	}
	if member.Status == models.MemberStatusRemoved {
		return false, nil
	}

	member.Status = models.MemberStatusRemoved
	if err := s.db.Save(&member).Error; err != nil {
		return false, err
	}

	if _, err := s.ReconcileMemberCount(member.GroupID); err != nil {
		return false, err
	}
	return true, nil
}

// addOrReactivateMember grants membership inside the caller's transaction.
// An existing row for (group, email) is updated in place regardless of its
// status, which is what makes re-accepting an invitation or re-redeeming a
// code safe. Every grant that is not already counted claims a capacity
// slot: the counter increment is a conditional update re-checking capacity
// so two concurrent joins cannot both take the last slot, whether the loser
// arrives as a new row or as a reactivation of a removed one. Returns
// errGroupFull when the slot is gone, rolling back the transaction.
func addOrReactivateMember(tx *gorm.DB, group *models.Group, email string,
	customerID *string, userID *uint, invitedBy *uint) (*models.GroupMember, error) {

	email = strings.ToLower(email)
	now := time.Now()

	var member models.GroupMember
	err := tx.Where("group_id = ? AND email = ?", group.ID, email).
		Order("id asc").
		First(&member).Error

	switch {
	case err == nil:
		// A row that is not active is not counted, so reactivating it
		// claims a slot exactly like an insert.
		if member.Status != models.MemberStatusActive {
			if err := claimCapacitySlot(tx, group.ID); err != nil {
				return nil, err
			}
		}
		member.Status = models.MemberStatusActive
		member.EmailVerified = true
		member.JoinedAt = &now
		if customerID != nil && *customerID != "" {
			member.ShopifyCustomerID = customerID
		}
		if userID != nil {
			member.UserID = userID
		}
		if err := tx.Save(&member).Error; err != nil {
			return nil, err
		}
		return &member, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := claimCapacitySlot(tx, group.ID); err != nil {
			return nil, err
		}

		member = models.GroupMember{
			GroupID:       group.ID,
			Email:         email,
			Role:          models.MemberRoleMember,
			Status:        models.MemberStatusActive,
			EmailVerified: true,
			JoinedAt:      &now,
			InvitedBy:     invitedBy,
		}
		if customerID != nil && *customerID != "" {
			member.ShopifyCustomerID = customerID
		}
		if userID != nil {
			member.UserID = userID
		}
		if err := tx.Create(&member).Error; err != nil {
			return nil, err
		}
		return &member, nil

	default:
		return nil, err
	}
}

// claimCapacitySlot bumps the counter only while a slot is actually free,
// which is what makes the capacity check race-safe under concurrent grants.
// errGroupFull aborts the caller's transaction.
func claimCapacitySlot(tx *gorm.DB, groupID uint) error {
	res := tx.Model(&models.Group{}).
		Where("id = ? AND status = ? AND current_members < max_members",
			groupID, models.GroupStatusActive).
		Update("current_members", gorm.Expr("current_members + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errGroupFull
	}
	return nil
}

// hasActiveMember reports whether the email already holds an active
// membership in the group.
func hasActiveMember(db *gorm.DB, groupID uint, email string) (bool, error) {
	var count int64
	err := db.Model(&models.GroupMember{}).
		Where("group_id = ? AND email = ? AND status = ?",
			groupID, strings.ToLower(email), models.MemberStatusActive).
		Count(&count).Error
	return count > 0, err
}
