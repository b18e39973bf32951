package models

import "time"

// Lunch 在某个群组地点的一次午餐，ChoosenBy 为选择该地点的用户
type Lunch struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GroupLocationID uint      `gorm:"not null;index" json:"group_location_id"`
	Date            time.Time `gorm:"not null" json:"date"`
	ChoosenByID     uint      `gorm:"not null" json:"choosen_by_id"`
	CreatedAt       time.Time `json:"created_at"`

	GroupLocation *GroupLocation `gorm:"foreignKey:GroupLocationID;constraint:OnDelete:CASCADE" json:"group_location,omitempty"`
	Scores        []Score        `gorm:"foreignKey:LunchID" json:"scores,omitempty"`
}

func (Lunch) TableName() string {
	return "lunches"
}
