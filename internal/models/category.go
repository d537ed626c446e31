package models

// Category represents a movement category
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`

	Movements []Movement `gorm:"foreignKey:CategoryID" json:"movements,omitempty"`
}
