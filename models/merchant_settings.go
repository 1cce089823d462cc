package models

import "time"

// MerchantSettings holds per-shop defaults for the group program.
// One row per merchant; the "default" merchant row is seeded at startup.
type MerchantSettings struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID        string    `gorm:"size:100;unique;not null" json:"merchant_id"`
	DefaultMaxMembers int       `gorm:"default:20" json:"default_max_members"`
	InviteExpiryDays  int       `gorm:"default:7" json:"invite_expiry_days"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MerchantSettings) TableName() string {
	return "merchant_settings"
}
