// File: /models/bike.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BikeStatus string

const (
	BikeStatusInUse       BikeStatus = "IN_USE"
	BikeStatusAvailable   BikeStatus = "AVAILABLE"
	BikeStatusMaintenance BikeStatus = "MAINTENANCE"
	BikeStatusReserved    BikeStatus = "RESERVED"
)

// BikeStatuses lists every status in the order the distribution chart shows
// them, with their display labels.
var BikeStatuses = []struct {
	Status BikeStatus
	Label  string
}{
	{BikeStatusInUse, "In Use"},
	{BikeStatusAvailable, "Available"},
	{BikeStatusMaintenance, "Maintenance"},
	{BikeStatusReserved, "Reserved"},
}

func (s BikeStatus) Valid() bool {
	for _, st := range BikeStatuses {
		if st.Status == s {
			return true
		}
	}
	return false
}

type Bike struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Brand       string          `json:"brand" gorm:"not null;size:100;index"`
	Model       string          `json:"model" gorm:"not null;size:100"`
	Year        string          `json:"year" gorm:"not null;size:4"`
	Color       string          `json:"color" gorm:"size:50"`
	Start       string          `json:"start" gorm:"size:50"` // starter type, e.g. kick or self
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Image       string          `json:"image" gorm:"size:500"`
	Date        time.Time       `json:"date"`
	Status      BikeStatus      `json:"status" gorm:"not null;size:20;default:'AVAILABLE';index"`
	LocationID  *uint           `json:"location_id" gorm:"index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

// CreateBikeRequest for POST /bikes/
type CreateBikeRequest struct {
	Brand       string           `json:"brand" binding:"required,max=100"`
	Model       string           `json:"model" binding:"required,max=100"`
	Year        string           `json:"year" binding:"required,len=4,numeric"`
	Color       string           `json:"color" binding:"max=50"`
	Start       string           `json:"start" binding:"max=50"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Description string           `json:"description"`
	Image       string           `json:"image" binding:"omitempty,url,max=500"`
	Date        *time.Time       `json:"date"`
	Status      BikeStatus       `json:"status" binding:"omitempty,bikestatus"`
	LocationID  *uint            `json:"location_id"`
}

// UpdateBikeRequest for PATCH /bikes/:id/
type UpdateBikeRequest struct {
	Brand       *string          `json:"brand" binding:"omitempty,min=1,max=100"`
	Model       *string          `json:"model" binding:"omitempty,min=1,max=100"`
	Year        *string          `json:"year" binding:"omitempty,len=4,numeric"`
	Color       *string          `json:"color" binding:"omitempty,max=50"`
	Start       *string          `json:"start" binding:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Image       *string          `json:"image" binding:"omitempty,url,max=500"`
	Date        *time.Time       `json:"date"`
	Status      *BikeStatus      `json:"status" binding:"omitempty,bikestatus"`
	LocationID  *uint            `json:"location_id"`
}

// Updates returns the column map for a partial update.
func (r UpdateBikeRequest) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if r.Brand != nil {
		updates["brand"] = *r.Brand
	}
	if r.Model != nil {
		updates["model"] = *r.Model
	}
	if r.Year != nil {
		updates["year"] = *r.Year
	}
	if r.Color != nil {
		updates["color"] = *r.Color
	}
	if r.Start != nil {
		updates["start"] = *r.Start
	}
	if r.Price != nil {
		updates["price"] = *r.Price
	}
	if r.Description != nil {
		updates["description"] = *r.Description
	}
	if r.Image != nil {
		updates["image"] = *r.Image
	}
	if r.Date != nil {
		updates["date"] = r.Date.UTC()
	}
	if r.Status != nil {
		updates["status"] = *r.Status
	}
	if r.LocationID != nil {
		updates["location_id"] = *r.LocationID
	}
	return updates
}

// BikeFilter carries the list, search and filter parameters of GET /bikes/.
type BikeFilter struct {
	Search     string
	Brand      string
	Model      string
	Year       string
	Color      string
	Start      string
	Status     string
	LocationID *uint
	Price      *decimal.Decimal
	Date       *time.Time // bikes listed on that UTC day
	Page       int
	Limit      int
}
