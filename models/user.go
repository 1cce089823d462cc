package models

import "time"

type User struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Email             string    `gorm:"size:255;unique;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`             // bcrypt, never in JSON
	Role              string    `gorm:"size:20;default:'customer'" json:"role"` // admin | staff | customer
	Active            bool      `gorm:"default:true" json:"active"`
	CanCreateGroups   bool      `gorm:"default:false" json:"can_create_groups"`
	MaxGroupMembers   *int      `json:"max_group_members"` // personal override, nil = merchant default
	ShopifyCustomerID *string   `gorm:"size:64;index" json:"shopify_customer_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
