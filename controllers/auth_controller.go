package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/middleware"
	"github.com/ptnhung/ffgroups-server/models"
	"github.com/ptnhung/ffgroups-server/utils"
)

type RegisterReq struct {
	Name     string `json:"name" binding:"required,min=1"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	email := strings.ToLower(req.Email)

	var count int64
	config.DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not hash password"})
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         "customer",
		Active:       true,
	}

	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": publicUser(user)})
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if !user.Active {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account disabled"})
		return
	}

	token, err := utils.GenerateToken(fmt.Sprintf("%d", user.ID), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": publicUser(user)})
}

func Me(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	c.JSON(http.StatusOK, gin.H{"user": publicUser(u)})
}

func publicUser(u models.User) gin.H {
	return gin.H{
		"id":                u.ID,
		"name":              u.Name,
		"email":             u.Email,
		"role":              u.Role,
		"active":            u.Active,
		"can_create_groups": u.CanCreateGroups,
		"created_at":        u.CreatedAt,
	}
}
