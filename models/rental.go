package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// BikeRental is written by the booking flow, which lives outside this
// service. Here it is only read for reporting.
type BikeRental struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       string          `json:"user_id" gorm:"not null;size:191;index"`
	BikeID       uint            `json:"bike_id" gorm:"not null;index"`
	PickupDate   time.Time       `json:"pickup_date" gorm:"not null;index"`
	DropoffDate  *time.Time      `json:"dropoff_date"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null;default:0"`
	RentalStatus RentalStatus    `json:"rental_status" gorm:"not null;size:20;default:'pending';index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
	Bike Bike `json:"-" gorm:"foreignKey:BikeID"`
}

func (BikeRental) TableName() string {
	return "bike_rentals"
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentEsewa      PaymentMethod = "esewa"
	PaymentKhalti     PaymentMethod = "khalti"
	PaymentCash       PaymentMethod = "cash"
)

// PaymentMethods are the accepted payment_via values in declaration order.
var PaymentMethods = []PaymentMethod{
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentEsewa,
	PaymentKhalti,
	PaymentCash,
}

func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// Category groups payment methods for the dashboard; both wallets fall
// under "Digital Wallet".
func (m PaymentMethod) Category() string {
	switch m {
	case PaymentCreditCard:
		return "Credit Card"
	case PaymentDebitCard:
		return "Debit Card"
	case PaymentEsewa, PaymentKhalti:
		return "Digital Wallet"
	case PaymentCash:
		return "Cash"
	}
	return ""
}

// PaymentCategories is the fixed output order of the payment methods chart.
var PaymentCategories = []string{"Credit Card", "Debit Card", "Digital Wallet", "Cash"}

type Payment struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	RentalID   uint            `json:"rental_id" gorm:"not null;index"`
	UserID     string          `json:"user_id" gorm:"not null;size:191;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentVia PaymentMethod   `json:"payment_via" gorm:"not null;size:20;index"`
	Status     string          `json:"status" gorm:"size:20;default:'completed'"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Rental BikeRental `json:"-" gorm:"foreignKey:RentalID"`
}
