package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/middleware"
	"github.com/ptnhung/ffgroups-server/models"
)

// InviteToGroup issues an invitation for the owner's group and sends the
// email. A failed send does not undo the invitation.
func InviteToGroup(c *gin.Context) {
	group := c.MustGet(middleware.CtxGroup).(models.Group)

	var req struct {
		Email         string `json:"email" binding:"required,email"`
		ExpiresInDays int    `json:"expires_in_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	days := req.ExpiresInDays
	if days <= 0 {
		days = config.App.InviteExpiryDays
	}

	invitation, err := inviteSvc.CreateInvitation(group.ID, req.Email, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create invitation"})
		return
	}
	if invitation == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Cannot invite: group is full, inactive, or this email is already invited or a member"})
		return
	}

	inviteURL := fmt.Sprintf("%s/invitations/%s", config.App.PortalBaseURL, invitation.Token)
	sent := notifier.SendInvitation(invitation.Email, group.Name, inviteURL)

	c.JSON(http.StatusCreated, gin.H{"data": invitation, "email_sent": sent})
}

func ListGroupInvitations(c *gin.Context) {
	group := c.MustGet(middleware.CtxGroup).(models.Group)

	invitations, err := inviteSvc.ListGroupInvitations(group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list invitations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitations, "total": len(invitations)})
}

// GetInvitation is the public preview behind the emailed link.
func GetInvitation(c *gin.Context) {
	invitation, err := inviteSvc.LookupByToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load invitation"})
		return
	}
	if invitation == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invitation not found"})
		return
	}

	var group models.Group
	if err := config.DB.First(&group, invitation.GroupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Group not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"email":      invitation.Email,
		"status":     invitation.Status,
		"expired":    inviteSvc.IsExpired(invitation),
		"expires_at": invitation.ExpiresAt,
		"group": gin.H{
			"id":              group.ID,
			"name":            group.Name,
			"status":          group.Status,
			"current_members": group.CurrentMembers,
			"max_members":     group.MaxMembers,
		},
	}})
}

// AcceptInvitation redeems an invitation token. The caller's identity comes
// from the API layer: an optional Shopify customer id supplied by the
// verified storefront session, or the authenticated user when present.
func AcceptInvitation(c *gin.Context) {
	var req struct {
		Token      string `json:"token" binding:"required"`
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

	member, err := inviteSvc.AcceptInvitation(c.Request.Context(), req.Token, req.CustomerID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not accept invitation"})
		return
	}
	if member == nil {
		c.JSON(http.StatusGone, gin.H{"message": "Invitation is no longer valid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the group", "data": member})
}

func RevokeInvitation(c *gin.Context) {
	group := c.MustGet(middleware.CtxGroup).(models.Group)

	inviteID, err := strconv.Atoi(c.Param("inviteId"))
	if err != nil || inviteID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid invitation id"})
		return
	}

	// Only invitations of the owner's own group.
	var invitation models.GroupInvitation
	if err := config.DB.First(&invitation, inviteID).Error; err != nil || invitation.GroupID != group.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invitation not found"})
		return
	}

	ok, err := inviteSvc.RevokeInvitation(invitation.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not revoke invitation"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"message": "Invitation is not pending"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation revoked"})
}
