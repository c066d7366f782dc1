package repositories

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bikerental-api/models"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(location *models.Location) error {
	if err := r.db.Create(location).Error; err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// List returns every location ordered by id.
func (r *LocationRepository) List() ([]models.Location, error) {
	locations := []models.Location{}
	err := r.db.Order("id").Find(&locations).Error
	return locations, err
}

// Search matches city case-insensitively by substring. An empty query
// returns every location.
func (r *LocationRepository) Search(query string) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List()
	}

	locations := []models.Location{}
	err := r.db.Where("LOWER(city) LIKE ? ESCAPE '!'", containsPattern(query)).
		Order("id").
		Find(&locations).Error
	return locations, err
}

// FindByID returns a wrapped gorm.ErrRecordNotFound when the id is unknown.
func (r *LocationRepository) FindByID(id uint) (*models.Location, error) {
	var location models.Location
	if err := r.db.First(&location, id).Error; err != nil {
		return nil, fmt.Errorf("find location %d: %w", id, err)
	}
	return &location, nil
}

// Update applies a partial update and returns the stored row.
func (r *LocationRepository) Update(id uint, updates map[string]interface{}) (*models.Location, error) {
	location, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := r.db.Model(location).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update location %d: %w", id, err)
		}
	}
	return r.FindByID(id)
}

// Delete removes the location and detaches any bikes stationed there.
func (r *LocationRepository) Delete(id uint) error {
	location, err := r.FindByID(id)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Bike{}).Where("location_id = ?", id).Update("location_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(location).Error
	})
}

// containsPattern builds a lowercase LIKE pattern with '!' as escape
// character, which both MySQL and sqlite accept.
func containsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
