package models

import "time"

// InviteToken 待处理的入群邀请，每个 (group_id, user_id) 最多一条
type InviteToken struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Token       string    `gorm:"uniqueIndex;size:36;not null" json:"token"`
	GroupID     uint      `gorm:"not null;uniqueIndex:idx_invite_group_user" json:"group_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_invite_group_user;index" json:"user_id"`
	CreatedByID uint      `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`

	Group *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"group,omitempty"`
}

func (InviteToken) TableName() string {
	return "invite_tokens"
}
