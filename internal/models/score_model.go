package models

import "time"

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Score 用户对一次午餐的评分，每个 (lunch_id, user_id) 最多一条
type Score struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LunchID   uint      `gorm:"not null;uniqueIndex:idx_score_lunch_user" json:"lunch_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_score_lunch_user;index" json:"user_id"`
	Score     float64   `gorm:"not null" json:"score"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lunch *Lunch `gorm:"foreignKey:LunchID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Score) TableName() string {
	return "scores"
}

// ScoreRequest 请求某个用户为某次午餐评分
type ScoreRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LunchID       uint      `gorm:"not null;uniqueIndex:idx_score_request_lunch_user" json:"lunch_id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_score_request_lunch_user;index" json:"user_id"`
	RequestedByID uint      `gorm:"not null" json:"requested_by_id"`
	CreatedAt     time.Time `json:"created_at"`

	Lunch *Lunch `gorm:"foreignKey:LunchID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ScoreRequest) TableName() string {
	return "score_requests"
}
