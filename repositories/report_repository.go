package repositories

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bikerental-api/models"
)

// ReportRepository holds the aggregate queries behind the admin dashboard.
// Every time argument is converted to UTC, the storage time zone.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) CountBikes() (int64, error) {
	var count int64
	err := r.db.Model(&models.Bike{}).Count(&count).Error
	return count, err
}

func (r *ReportRepository) CountBikesByStatus(status models.BikeStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.Bike{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *ReportRepository) CountRentalsByStatus(status models.RentalStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.BikeRental{}).Where("rental_status = ?", status).Count(&count).Error
	return count, err
}

// CountRentalsPickedUp counts rentals with pickup_date in [from, to).
func (r *ReportRepository) CountRentalsPickedUp(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.BikeRental{}).
		Where("pickup_date >= ? AND pickup_date < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// SumRevenue totals total_amount of rentals picked up in [from, to). It is
// zero when there are none.
func (r *ReportRepository) SumRevenue(from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.Model(&models.BikeRental{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("pickup_date >= ? AND pickup_date < ?", from.UTC(), to.UTC()).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

// CountUsersJoined counts users with date_joined in [from, to).
func (r *ReportRepository) CountUsersJoined(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("date_joined >= ? AND date_joined < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// CountUsersLoggedIn counts users whose last_login falls in [from, to).
func (r *ReportRepository) CountUsersLoggedIn(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("last_login >= ? AND last_login < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// ActivitiesBetween returns user id and timestamp of activity rows in
// [from, to), oldest first.
func (r *ReportRepository) ActivitiesBetween(from, to time.Time) ([]models.UserActivity, error) {
	activities := []models.UserActivity{}
	err := r.db.Select("user_id", "timestamp").
		Where("timestamp >= ? AND timestamp < ?", from.UTC(), to.UTC()).
		Order("timestamp").
		Find(&activities).Error
	return activities, err
}

// CountPaymentsByMethod returns the number of payments per payment_via value.
func (r *ReportRepository) CountPaymentsByMethod() (map[models.PaymentMethod]int64, error) {
	var rows []struct {
		PaymentVia models.PaymentMethod
		Total      int64
	}
	err := r.db.Model(&models.Payment{}).
		Select("payment_via, COUNT(*) AS total").
		Group("payment_via").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	counts := make(map[models.PaymentMethod]int64, len(rows))
	for _, row := range rows {
		counts[row.PaymentVia] = row.Total
	}
	return counts, nil
}
