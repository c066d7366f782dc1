package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"bikerental-api/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// EmailExists reports whether an account already uses the address.
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("email = ?", models.NormalizeEmail(email)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByEmail returns gorm.ErrRecordNotFound (wrapped) for unknown addresses.
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(userID, hashedPassword string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hashedPassword).Error
}

func (r *UserRepository) UpdateLastLogin(userID string, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("last_login", at.UTC()).Error
}

func (r *UserRepository) SetActive(userID string, active bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", active).Error
}

func (r *UserRepository) RecordActivity(activity *models.UserActivity) error {
	activity.Timestamp = activity.Timestamp.UTC()
	return r.db.Create(activity).Error
}
