package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/middleware"
	"github.com/ptnhung/ffgroups-server/models"
	"github.com/ptnhung/ffgroups-server/services"
)

func CreateGroup(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req struct {
		Name       string `json:"name" binding:"required"`
		MerchantID string `json:"merchant_id"`
		MaxMembers *int   `json:"max_members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	merchantID := req.MerchantID
	if merchantID == "" {
		merchantID = config.App.DefaultMerchantID
	}

	group, err := groupSvc.CreateGroup(u.ID, merchantID, req.Name, req.MaxMembers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOwnerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Owner account not found"})
		case errors.Is(err, services.ErrOwnerDisabled):
			c.JSON(http.StatusForbidden, gin.H{"message": "Account is disabled"})
		case errors.Is(err, services.ErrOwnerNotEligible):
			c.JSON(http.StatusForbidden, gin.H{"message": "You are not allowed to create groups"})
		case errors.Is(err, services.ErrAlreadyOwnsGroup):
			c.JSON(http.StatusConflict, gin.H{"message": "You already own an active group"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create group"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": group})
}

func GetGroupDetail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
		return
	}

	// Counter first, then the (self-healing) read, so the payload carries
	// reconciled numbers.
	if _, err := memberSvc.ReconcileMemberCount(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load group"})
		return
	}

	group, err := groupSvc.GetGroup(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load group"})
		return
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Group not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": group})
}

// GetMyGroup returns the caller's active group, as owner or member.
func GetMyGroup(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var member models.GroupMember
	err := config.DB.
		Where("user_id = ? AND status = ?", u.ID, models.MemberStatusActive).
		Order("joined_at desc").
		First(&member).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "You are not in a group"})
		return
	}

	if _, err := memberSvc.ReconcileMemberCount(member.GroupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load group"})
		return
	}
	group, err := groupSvc.GetGroup(member.GroupID)
	if err != nil || group == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "You are not in a group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"group": group, "membership": member}})
}

func GetGroupParticipants(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
		return
	}

	var members []models.GroupMember
	if c.Query("all") == "true" {
		members, err = memberSvc.ListAllMembers(uint(id))
	} else {
		members, err = memberSvc.ListActiveMembers(uint(id))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": members, "total": len(members)})
}

// RemoveMemberFromGroup enforces the caller-side authorization rule: the
// owner may remove anyone except themselves, a member only themselves.
func RemoveMemberFromGroup(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	groupID, err := strconv.Atoi(c.Param("id"))
	if err != nil || groupID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
		return
	}
	memberID, err := strconv.Atoi(c.Param("memberId"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid member id"})
		return
	}

	var group models.Group
	if err := config.DB.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Group not found"})
		return
	}

	var member models.GroupMember
	if err := config.DB.First(&member, memberID).Error; err != nil || member.GroupID != group.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}

	isOwner := group.OwnerUserID != nil && *group.OwnerUserID == u.ID
	isSelf := member.UserID != nil && *member.UserID == u.ID
	if !isOwner && !isSelf {
		c.JSON(http.StatusForbidden, gin.H{"message": "You may only remove yourself"})
		return
	}

	ok, err := memberSvc.RemoveMember(member.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not remove member"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Member cannot be removed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
