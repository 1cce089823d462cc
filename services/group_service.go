package services

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ptnhung/ffgroups-server/models"
)

// fallbackMaxMembers is the hard-coded floor of the max-member resolution
// chain: explicit request, owner override, merchant default, this.
const fallbackMaxMembers = 20

// GroupService owns group creation, lookup and status transitions.
type GroupService struct {
	db                *gorm.DB
	defaultMerchantID string
}

func NewGroupService(db *gorm.DB, defaultMerchantID string) *GroupService {
	return &GroupService{db: db, defaultMerchantID: defaultMerchantID}
}

// CreateGroup creates a group plus its owner membership in one transaction.
// Preconditions are checked in order and the first failure wins; nothing is
// written unless all of them pass.
func (s *GroupService) CreateGroup(ownerUserID uint, merchantID, name string, requestedMax *int) (*models.Group, error) {
	var owner models.User
	if err := s.db.First(&owner, ownerUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	if !owner.Active {
		return nil, ErrOwnerDisabled
	}
	if !owner.CanCreateGroups {
		return nil, ErrOwnerNotEligible
	}

	var owned int64
	err := s.db.Model(&models.Group{}).
		Where("owner_user_id = ? AND status = ?", ownerUserID, models.GroupStatusActive).
		Count(&owned).Error
	if err != nil {
		return nil, err
	}
	if owned > 0 {
		return nil, ErrAlreadyOwnsGroup
	}

	maxMembers := s.resolveMaxMembers(requestedMax, &owner, merchantID)

	code, err := GenerateUniqueInviteCode(func(c string) (bool, error) {
		var n int64
		if err := s.db.Model(&models.Group{}).Where("invite_code = ?", c).Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	}, DefaultCodeAttempts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	group := models.Group{
		MerchantID:      merchantID,
		Name:            name,
		OwnerCustomerID: owner.ShopifyCustomerID,
		OwnerEmail:      strings.ToLower(owner.Email),
		OwnerUserID:     &owner.ID,
		InviteCode:      code,
		MaxMembers:      maxMembers,
		CurrentMembers:  1,
		Status:          models.GroupStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		ownerRow := models.GroupMember{
			GroupID:           group.ID,
			ShopifyCustomerID: owner.ShopifyCustomerID,
			UserID:            &owner.ID,
			Email:             strings.ToLower(owner.Email),
			Role:              models.MemberRoleOwner,
			Status:            models.MemberStatusActive,
			EmailVerified:     true,
			JoinedAt:          &now,
		}
		return tx.Create(&ownerRow).Error
	})
	if err != nil {
		return nil, err
	}

	slog.Info("group created",
		"group_id", group.ID, "owner_user_id", owner.ID, "max_members", maxMembers)
	return &group, nil
}

// GetGroup loads a group by id; returns nil when it does not exist. The
// read self-heals max_members: the owner's override or merchant default may
// have changed since creation, and the stored value is updated to match.
func (s *GroupService) GetGroup(id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	desired := s.desiredMaxMembers(&group)
	if desired != group.MaxMembers {
		slog.Info("healing drifted max_members",
			"group_id", group.ID, "stored", group.MaxMembers, "desired", desired)
		group.MaxMembers = desired
		if err := s.db.Model(&models.Group{}).
			Where("id = ?", group.ID).
			Update("max_members", desired).Error; err != nil {
			return nil, err
		}
	}
	return &group, nil
}

// GetGroupByInviteCode returns nil when no group carries the code.
func (s *GroupService) GetGroupByInviteCode(code string) (*models.Group, error) {
	var group models.Group
	err := s.db.Where("invite_code = ?", strings.ToUpper(code)).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// UpdateGroupStatus is the administrative suspend/terminate/reactivate
// switch. It carries no business side effects: suspending does not cascade
// to member rows. Returns false for unknown groups or status values.
func (s *GroupService) UpdateGroupStatus(id uint, status string) (bool, error) {
	switch status {
	case models.GroupStatusActive, models.GroupStatusSuspended, models.GroupStatusTerminated:
	default:
		return false, nil
	}

	res := s.db.Model(&models.Group{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListGroups is the admin listing with search, status filter and paging.
func (s *GroupService) ListGroups(merchantID, search, status string, page, limit int) ([]models.Group, int64, error) {
	query := s.db.Model(&models.Group{})

	if merchantID != "" {
		query = query.Where("merchant_id = ?", merchantID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var groups []models.Group
	err := query.Offset((page - 1) * limit).Limit(limit).
		Order("created_at desc").
		Find(&groups).Error
	return groups, total, err
}

func (s *GroupService) resolveMaxMembers(requested *int, owner *models.User, merchantID string) int {
	if requested != nil && *requested > 0 {
		return *requested
	}
	if owner.MaxGroupMembers != nil && *owner.MaxGroupMembers > 0 {
		return *owner.MaxGroupMembers
	}
	if n := s.merchantDefault(merchantID); n > 0 {
		return n
	}
	return fallbackMaxMembers
}

// desiredMaxMembers recomputes the "ought to be" limit for an existing
// group from the current owner override and merchant default.
func (s *GroupService) desiredMaxMembers(group *models.Group) int {
	if group.OwnerUserID != nil {
		var owner models.User
		if err := s.db.First(&owner, *group.OwnerUserID).Error; err == nil {
			if owner.MaxGroupMembers != nil && *owner.MaxGroupMembers > 0 {
				return *owner.MaxGroupMembers
			}
		}
	}
	if n := s.merchantDefault(group.MerchantID); n > 0 {
		return n
	}
	return fallbackMaxMembers
}

func (s *GroupService) merchantDefault(merchantID string) int {
	if merchantID == "" {
		merchantID = s.defaultMerchantID
	}
	var settings models.MerchantSettings
	if err := s.db.Where("merchant_id = ?", merchantID).First(&settings).Error; err != nil {
		if merchantID != s.defaultMerchantID {
			if err := s.db.Where("merchant_id = ?", s.defaultMerchantID).First(&settings).Error; err != nil {
				return 0
			}
			return settings.DefaultMaxMembers
		}
		return 0
	}
	return settings.DefaultMaxMembers
}
