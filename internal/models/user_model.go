package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UserRoleUser  = "USER"
	UserRoleAdmin = "ADMIN"
)

// User 用户模型
// 匿名用户（由其他成员创建、用于记录未注册的参与者）没有邮箱和密码
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string  `gorm:"not null" json:"name"`
	Email        *string `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash *string `json:"-"`
	Role         string  `gorm:"type:varchar(16);default:USER;not null" json:"role"`
	AvatarID     int     `gorm:"default:0" json:"avatar_id"`
	Anonymous    bool    `gorm:"default:false" json:"anonymous"`
	CreatedByID  *uint   `json:"created_by_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
