// File: /models/location.go
package models

import (
	"time"
)

// Location is a pickup point where bikes are stationed.
type Location struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	City      string    `json:"city" gorm:"not null;size:100;index"`
	Address   string    `json:"address" gorm:"size:255"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Location) TableName() string {
	return "locations"
}

// CreateLocationRequest for POST /locations/
type CreateLocationRequest struct {
	City      string   `json:"city" binding:"required,max=100"`
	Address   string   `json:"address" binding:"max=255"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// UpdateLocationRequest for PATCH /locations/:id/, every field optional
type UpdateLocationRequest struct {
	City      *string  `json:"city" binding:"omitempty,min=1,max=100"`
	Address   *string  `json:"address" binding:"omitempty,max=255"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// Updates returns the column map for a partial update.
func (r UpdateLocationRequest) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if r.City != nil {
		updates["city"] = *r.City
	}
	if r.Address != nil {
		updates["address"] = *r.Address
	}
	if r.Latitude != nil {
		updates["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		updates["longitude"] = *r.Longitude
	}
	return updates
}
