package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/models"
	"github.com/ptnhung/ffgroups-server/utils"
)

const (
	CtxUser  = "user"
	CtxGroup = "groupObj"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT, loads
// the user row and injects it into the context.
func AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := utils.VerifyToken(rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		uid, err := strconv.ParseUint(claims.UserID, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid subject"})
			return
		}

		var user models.User
		if err := config.DB.First(&user, uid).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Account disabled"})
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid bearer token is present but
// lets anonymous requests through untouched.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.Next()
			return
		}

		claims, err := utils.VerifyToken(strings.TrimSpace(authHeader[7:]))
		if err != nil {
			c.Next()
			return
		}

		uid, err := strconv.ParseUint(claims.UserID, 10, 64)
		if err != nil {
			c.Next()
			return
		}

		var user models.User
		if err := config.DB.First(&user, uid).Error; err == nil && user.Active {
			c.Set(CtxUser, user)
		}
		c.Next()
	}
}

// RequireAdmin guards the admin-only routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		u := v.(models.User)
		if u.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}
