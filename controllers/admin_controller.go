package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/models"
)

// AdminListGroups lists groups across the merchant with search and paging.
func AdminListGroups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	groups, total, err := groupSvc.ListGroups(
		c.Query("merchant_id"), c.Query("search"), c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  groups,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func AdminUpdateGroupStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	ok, err := groupSvc.UpdateGroupStatus(uint(id), req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update status"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown group or invalid status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// AdminSyncMemberCount recomputes a group's cached counter from the actual
// active rows. The routine is idempotent, so this is always safe to call.
func AdminSyncMemberCount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
		return
	}

	count, err := memberSvc.ReconcileMemberCount(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not sync member count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member count synced", "current_members": count})
}

func AdminGetMerchantSettings(c *gin.Context) {
	merchantID := c.DefaultQuery("merchant_id", config.App.DefaultMerchantID)

	var settings models.MerchantSettings
	if err := config.DB.Where("merchant_id = ?", merchantID).First(&settings).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Merchant settings not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func AdminUpdateMerchantSettings(c *gin.Context) {
	var req struct {
		MerchantID        string `json:"merchant_id"`
		DefaultMaxMembers *int   `json:"default_max_members"`
		InviteExpiryDays  *int   `json:"invite_expiry_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	merchantID := req.MerchantID
	if merchantID == "" {
		merchantID = config.App.DefaultMerchantID
	}

	settings := models.MerchantSettings{MerchantID: merchantID}
	if err := config.DB.Where(models.MerchantSettings{MerchantID: merchantID}).
		FirstOrCreate(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load settings"})
		return
	}

	if req.DefaultMaxMembers != nil && *req.DefaultMaxMembers > 0 {
		settings.DefaultMaxMembers = *req.DefaultMaxMembers
	}
	if req.InviteExpiryDays != nil && *req.InviteExpiryDays > 0 {
		settings.InviteExpiryDays = *req.InviteExpiryDays
	}

	if err := config.DB.Save(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// AdminUpdateUserFlags toggles group-program eligibility on a user account.
func AdminUpdateUserFlags(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	var req struct {
		Active          *bool `json:"active"`
		CanCreateGroups *bool `json:"can_create_groups"`
		MaxGroupMembers *int  `json:"max_group_members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.CanCreateGroups != nil {
		user.CanCreateGroups = *req.CanCreateGroups
	}
	if req.MaxGroupMembers != nil {
		if *req.MaxGroupMembers > 0 {
			user.MaxGroupMembers = req.MaxGroupMembers
		} else {
			user.MaxGroupMembers = nil
		}
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": publicUser(user)})
}
