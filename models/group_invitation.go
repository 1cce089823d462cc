package models

import "time"

const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
	InvitationStatusExpired  = "expired"
	InvitationStatusRevoked  = "revoked"
)

// GroupInvitation is a single-use, time-boxed offer to join one group via
// one email. Once status leaves "pending" it is terminal.
type GroupInvitation struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GroupID    uint       `gorm:"column:group_id;not null;index" json:"group_id"`
	Email      string     `gorm:"column:email;size:255;not null" json:"email"`
	Token      string     `gorm:"column:token;size:128;uniqueIndex;not null" json:"-"`
	Status     string     `gorm:"column:status;size:20;default:'pending'" json:"status"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	SentAt     *time.Time `gorm:"column:sent_at" json:"sent_at"`
	AcceptedAt *time.Time `gorm:"column:accepted_at" json:"accepted_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (GroupInvitation) TableName() string {
	return "group_invitations"
}
