package models

import "time"

const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"

	MemberStatusPending  = "pending"
	MemberStatusActive   = "active"
	MemberStatusRemoved  = "removed"
	MemberStatusInactive = "inactive"
)

// GroupMember is one person's association to one group. Rows are never hard
// deleted; leaving a group transitions status to "removed" so history and
// re-join idempotency survive.
type GroupMember struct {
	ID                    uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GroupID               uint       `gorm:"column:group_id;not null;index:idx_group_email" json:"group_id"`
	ShopifyCustomerID     *string    `gorm:"column:shopify_customer_id;size:64" json:"shopify_customer_id"`
	UserID                *uint      `gorm:"column:user_id;index" json:"user_id"`
	Email                 string     `gorm:"column:email;size:255;not null;index:idx_group_email" json:"email"`
	Role                  string     `gorm:"column:role;size:20;default:'member'" json:"role"`      // owner | member
	Status                string     `gorm:"column:status;size:20;default:'pending'" json:"status"` // pending | active | removed | inactive
	EmailVerified         bool       `gorm:"column:email_verified;default:false" json:"email_verified"`
	VerificationToken     *string    `gorm:"column:verification_token;size:128" json:"-"`
	VerificationExpiresAt *time.Time `gorm:"column:verification_expires_at" json:"-"`
	JoinedAt              *time.Time `gorm:"column:joined_at" json:"joined_at"`
	InvitedBy             *uint      `gorm:"column:invited_by" json:"invited_by"`
	CreatedAt             time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
