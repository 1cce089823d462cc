package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/models"
)

// CheckGroupOwner loads the group from the :id param into the context and
// verifies the authenticated user owns it.
func CheckGroupOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		user := v.(models.User)

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
			return
		}

		var group models.Group
		if err := config.DB.First(&group, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Group not found"})
			return
		}

		if group.OwnerUserID == nil || *group.OwnerUserID != user.ID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You do not own this group"})
			return
		}

		c.Set(CtxGroup, group)
		c.Next()
	}
}
