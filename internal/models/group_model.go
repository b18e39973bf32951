package models

import "time"

// Group 午餐俱乐部
type Group struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name    string        `gorm:"not null" json:"name"`
	Members []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}
