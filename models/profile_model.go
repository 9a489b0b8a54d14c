package models

import "time"

type Profile struct {
	ID          uint    `gorm:"primary_key" json:"id"`
	UserID      uint    `gorm:"not null;unique" json:"user_id"`
	DisplayName string  `gorm:"size:255" json:"display_name"`
	HourlyRate  int64   `gorm:"not null;default:0" json:"hourly_rate"`
	Bio         *string `gorm:"type:text" json:"bio,omitempty"`

	User User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
