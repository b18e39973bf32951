package models

import "time"

// Location 通用地点，可被多个群组引用
type Location struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name    string  `gorm:"not null" json:"name"`
	Address string  `json:"address"`
	ZipCode string  `json:"zip_code"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Global  bool    `gorm:"default:false" json:"global"`

	CreatedAt time.Time `json:"created_at"`
}

func (Location) TableName() string {
	return "locations"
}

// GroupLocation 群组发现的地点，(location_id, group_id) 唯一
type GroupLocation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	GroupID        uint      `gorm:"not null;uniqueIndex:idx_location_group" json:"group_id"`
	LocationID     uint      `gorm:"not null;uniqueIndex:idx_location_group" json:"location_id"`
	DiscoveredByID uint      `gorm:"not null" json:"discovered_by_id"`
	CreatedAt      time.Time `json:"created_at"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

func (GroupLocation) TableName() string {
	return "group_locations"
}
