// File: /models/user.go
package models

import (
	"strings"
	"time"
)

type User struct {
	ID         string     `json:"id" gorm:"primaryKey;size:191"`
	FirstName  string     `json:"first_name" gorm:"not null;size:150"`
	LastName   string     `json:"last_name" gorm:"size:150"`
	Email      string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Phone      string     `json:"phone" gorm:"size:20"`
	Password   string     `json:"-" gorm:"not null;size:255"`
	OTPSecret  string     `json:"-" gorm:"size:64"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	IsAdmin    bool       `json:"is_admin" gorm:"default:false"`
	DateJoined time.Time  `json:"date_joined" gorm:"not null;index"`
	LastLogin  *time.Time `json:"last_login" gorm:"index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Rentals []BikeRental `json:"-" gorm:"foreignKey:UserID"`
}

// FullName joins first and last name, skipping an empty last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserActivity is one observed authenticated request, used for the hourly
// usage chart.
type UserActivity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;size:191;index"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	Path      string    `json:"path" gorm:"size:255"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
