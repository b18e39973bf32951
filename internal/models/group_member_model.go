package models

import "time"

const (
	MemberRoleAdmin  = "ADMIN"
	MemberRoleMember = "MEMBER"
)

// GroupMember 群组成员关系，(group_id, user_id) 唯一
type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user;index" json:"user_id"`
	Role     string    `gorm:"type:varchar(16);default:MEMBER;not null" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

func ValidMemberRole(role string) bool {
	return role == MemberRoleAdmin || role == MemberRoleMember
}
