// File: /models/types.go
package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Dashboard charts consume amounts as numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ChartPoint is a named value in a pie or bar chart.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// QuickStats is the summary row at the top of the admin dashboard.
type QuickStats struct {
	TotalBikes    int64           `json:"total_bikes"`
	ActiveRentals int64           `json:"active_rentals"`
	NewUsers      int64           `json:"new_users"`
	TodaysRevenue decimal.Decimal `json:"todays_revenue"`
}

type MonthlyRentalCount struct {
	Month   string `json:"month"`
	Rentals int64  `json:"rentals"`
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Rentals int64           `json:"rentals"`
	Revenue decimal.Decimal `json:"revenue"`
}

type HourlyUsage struct {
	Hour  string `json:"hour"`
	Users int64  `json:"users"`
}

type DailyUserCount struct {
	Name   string `json:"name"`
	Active int64  `json:"active"`
	New    int64  `json:"new"`
}
