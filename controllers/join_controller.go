package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/middleware"
	"github.com/ptnhung/ffgroups-server/models"
)

// PreviewInviteCode shows what a shopper is about to join before they
// commit an email address to it.
func PreviewInviteCode(c *gin.Context) {
	group, err := groupSvc.GetGroupByInviteCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not look up code"})
		return
	}
	if group == nil || group.Status != models.GroupStatusActive {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invalid invite code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"name":            group.Name,
		"current_members": group.CurrentMembers,
		"max_members":     group.MaxMembers,
		"full":            group.CurrentMembers >= group.MaxMembers,
	}})
}

// JoinByCode redeems an invite code for the supplied email.
func JoinByCode(c *gin.Context) {
	var req struct {
		Code       string `json:"code" binding:"required"`
		Email      string `json:"email" binding:"required,email"`
		CustomerID string `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	var userID uint
	if v, ok := c.Get(middleware.CtxUser); ok {
		userID = v.(models.User).ID
	}

	member, err := joinSvc.JoinByCode(c.Request.Context(), req.Code, req.Email, req.CustomerID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not join group"})
		return
	}
	if member == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Cannot join: invalid code, group full or inactive, or you are already a member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the group", "data": member})
}
