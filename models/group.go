package models

import "time"

const (
	GroupStatusActive     = "active"
	GroupStatusSuspended  = "suspended"
	GroupStatusTerminated = "terminated"
)

type Group struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MerchantID      string    `gorm:"column:merchant_id;size:100;not null" json:"merchant_id"`
	Name            string    `gorm:"column:name;size:100;not null" json:"name"`
	OwnerCustomerID *string   `gorm:"column:owner_customer_id;size:64" json:"owner_customer_id"`
	OwnerEmail      string    `gorm:"column:owner_email;size:255;not null" json:"owner_email"`
	OwnerUserID     *uint     `gorm:"column:owner_user_id;index" json:"owner_user_id"` // nullable for legacy rows
	InviteCode      string    `gorm:"column:invite_code;size:32;uniqueIndex;not null" json:"invite_code"`
	DiscountCode    *string   `gorm:"column:discount_code;size:100" json:"discount_code"`
	MaxMembers      int       `gorm:"column:max_members;not null" json:"max_members"`
	CurrentMembers  int       `gorm:"column:current_members;default:0" json:"current_members"` // cached, see ReconcileMemberCount
	Status          string    `gorm:"column:status;size:20;default:'active'" json:"status"`    // active | suspended | terminated
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}
