package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bikerental-api/models"
)

// bikeSearchColumns mirror the admin's text search fields. Price and date
// are matched exactly when the query parses as one.
var bikeSearchColumns = []string{
	"LOWER(brand)",
	"LOWER(model)",
	"LOWER(year)",
	"LOWER(color)",
	"LOWER(start)",
	"LOWER(description)",
	"LOWER(image)",
}

const dateLayout = "2006-01-02"

type BikeRepository struct {
	db *gorm.DB
}

func NewBikeRepository(db *gorm.DB) *BikeRepository {
	return &BikeRepository{db: db}
}

// List applies search, exact filters and pagination and returns the page
// together with the total number of matching bikes.
func (r *BikeRepository) List(filter models.BikeFilter) ([]models.Bike, int64, error) {
	query := r.db.Model(&models.Bike{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		clauses := make([]string, 0, len(bikeSearchColumns)+2)
		args := make([]interface{}, 0, len(bikeSearchColumns)+3)
		for _, col := range bikeSearchColumns {
			clauses = append(clauses, col+" LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
		if price, err := decimal.NewFromString(search); err == nil {
			clauses = append(clauses, "price = ?")
			args = append(args, price)
		}
		if day, err := time.Parse(dateLayout, search); err == nil {
			clauses = append(clauses, "(date >= ? AND date < ?)")
			args = append(args, day, day.AddDate(0, 0, 1))
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	exact := map[string]string{
		"brand":  filter.Brand,
		"model":  filter.Model,
		"year":   filter.Year,
		"color":  filter.Color,
		"start":  filter.Start,
		"status": filter.Status,
	}
	for col, val := range exact {
		if val != "" {
			query = query.Where(col+" = ?", val)
		}
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Price != nil {
		query = query.Where("price = ?", *filter.Price)
	}
	if filter.Date != nil {
		day := filter.Date.UTC().Truncate(24 * time.Hour)
		query = query.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
	}
	// Count and Find must not share statement state.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bikes: %w", err)
	}

	bikes := []models.Bike{}
	offset := (filter.Page - 1) * filter.Limit
	err := query.Preload("Location").
		Order("id").
		Offset(offset).
		Limit(filter.Limit).
		Find(&bikes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bikes: %w", err)
	}

	return bikes, total, nil
}

func (r *BikeRepository) FindByID(id uint) (*models.Bike, error) {
	var bike models.Bike
	if err := r.db.Preload("Location").First(&bike, id).Error; err != nil {
		return nil, fmt.Errorf("find bike %d: %w", id, err)
	}
	return &bike, nil
}

func (r *BikeRepository) Create(bike *models.Bike) error {
	if err := r.db.Create(bike).Error; err != nil {
		return fmt.Errorf("failed to create bike: %w", err)
	}
	return nil
}

func (r *BikeRepository) Update(id uint, updates map[string]interface{}) (*models.Bike, error) {
	bike, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := r.db.Model(&models.Bike{ID: bike.ID}).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update bike %d: %w", id, err)
		}
	}
	return r.FindByID(id)
}

func (r *BikeRepository) Delete(id uint) error {
	bike, err := r.FindByID(id)
	if err != nil {
		return err
	}
	return r.db.Delete(&models.Bike{}, bike.ID).Error
}

// LocationExists is used to validate location_id on writes.
func (r *BikeRepository) LocationExists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Location{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
