// File: /database/database.go
package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bikerental-api/models"
)

// Initialize opens the database for the given driver ("mysql" or "sqlite").
// Timestamps are always written in UTC.
func Initialize(driver, databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(databaseURL)
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// An in-memory sqlite database exists per connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserActivity{},
		&models.Location{},
		&models.Bike{},
		&models.BikeRental{},
		&models.Payment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	addCustomIndexes(db, log)
	return nil
}

func addCustomIndexes(db *gorm.DB, log *zap.Logger) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_user_activities_ts_user ON user_activities(timestamp, user_id)",
		"CREATE INDEX IF NOT EXISTS idx_bike_rentals_pickup_status ON bike_rentals(pickup_date, rental_status)",
	}
	for _, stmt := range indexes {
		// MySQL has no IF NOT EXISTS for indexes; a failure here only costs speed.
		if err := db.Exec(stmt).Error; err != nil {
			log.Warn("could not create index", zap.String("statement", stmt), zap.Error(err))
		}
	}
}

// EnsureAdmin creates the admin account when it does not exist yet. It
// reports whether an account was created.
func EnsureAdmin(db *gorm.DB, email, password, otpSecret string) (bool, error) {
	if password == "" {
		return false, nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", models.NormalizeEmail(email)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{
		ID:         uuid.New().String(),
		FirstName:  "Admin",
		Email:      models.NormalizeEmail(email),
		Password:   string(hashed),
		OTPSecret:  otpSecret,
		IsActive:   true,
		IsAdmin:    true,
		DateJoined: time.Now().UTC(),
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

// SeedData populates an empty database for development: locations, bikes,
// a demo rider and that rider's rentals and payments.
func SeedData(db *gorm.DB, log *zap.Logger) error {
	var bikeCount int64
	if err := db.Model(&models.Bike{}).Count(&bikeCount).Error; err != nil {
		return fmt.Errorf("failed to count bikes: %w", err)
	}
	if bikeCount > 0 {
		log.Info("database already has data, skipping seed")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		locations := []models.Location{
			{City: "Kathmandu", Address: "Thamel Marg"},
			{City: "Pokhara", Address: "Lakeside Road"},
			{City: "Lalitpur", Address: "Jawalakhel"},
		}
		for i := range locations {
			if err := tx.Create(&locations[i]).Error; err != nil {
				return fmt.Errorf("failed to seed location %s: %w", locations[i].City, err)
			}
		}

		now := time.Now().UTC()
		bikes := []models.Bike{
			{Brand: "Royal Enfield", Model: "Classic 350", Year: "2022", Color: "Black", Start: "self", Price: decimal.NewFromInt(2500), Status: models.BikeStatusInUse, LocationID: &locations[0].ID, Date: now},
			{Brand: "Honda", Model: "CB Shine", Year: "2021", Color: "Red", Start: "kick", Price: decimal.NewFromInt(1200), Status: models.BikeStatusAvailable, LocationID: &locations[1].ID, Date: now},
			{Brand: "Bajaj", Model: "Pulsar 220", Year: "2023", Color: "Blue", Start: "self", Price: decimal.NewFromInt(1800), Status: models.BikeStatusMaintenance, LocationID: &locations[2].ID, Date: now},
			{Brand: "Yamaha", Model: "FZ V3", Year: "2023", Color: "Grey", Start: "self", Price: decimal.NewFromInt(2000), Status: models.BikeStatusReserved, LocationID: &locations[0].ID, Date: now},
		}
		for i := range bikes {
			if err := tx.Create(&bikes[i]).Error; err != nil {
				return fmt.Errorf("failed to seed bike %s %s: %w", bikes[i].Brand, bikes[i].Model, err)
			}
		}

		// Nobody knows the rider's password; the account only owns rentals.
		hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash rider password: %w", err)
		}
		rider := models.User{
			ID:         uuid.New().String(),
			FirstName:  "Demo",
			LastName:   "Rider",
			Email:      "rider@bikerental.local",
			Password:   string(hashed),
			IsActive:   true,
			DateJoined: now.AddDate(0, -4, 0),
		}
		if err := tx.Create(&rider).Error; err != nil {
			return fmt.Errorf("failed to seed rider: %w", err)
		}

		seeds := []struct {
			bike   int
			pickup time.Time
			days   int
			status models.RentalStatus
			via    models.PaymentMethod
		}{
			{0, now.AddDate(0, -3, 0), 3, models.RentalStatusCompleted, models.PaymentCreditCard},
			{1, now.AddDate(0, -2, 0), 2, models.RentalStatusCompleted, models.PaymentDebitCard},
			{1, now.AddDate(0, -1, 0), 1, models.RentalStatusCompleted, models.PaymentEsewa},
			{2, now.AddDate(0, 0, -10), 4, models.RentalStatusCompleted, models.PaymentKhalti},
			{0, now.Add(-time.Hour), 2, models.RentalStatusActive, models.PaymentCash},
			{1, now.AddDate(0, 0, -20), 1, models.RentalStatusCancelled, ""},
			{3, now.AddDate(0, 0, 2), 3, models.RentalStatusPending, ""},
		}
		rentals, payments := 0, 0
		for _, seed := range seeds {
			bike := bikes[seed.bike]
			rental := models.BikeRental{
				UserID:       rider.ID,
				BikeID:       bike.ID,
				PickupDate:   seed.pickup,
				TotalAmount:  bike.Price.Mul(decimal.NewFromInt(int64(seed.days))),
				RentalStatus: seed.status,
			}
			if seed.status == models.RentalStatusCompleted {
				dropoff := seed.pickup.AddDate(0, 0, seed.days)
				rental.DropoffDate = &dropoff
			}
			if err := tx.Create(&rental).Error; err != nil {
				return fmt.Errorf("failed to seed rental: %w", err)
			}
			rentals++

			if seed.via == "" {
				continue
			}
			payment := models.Payment{
				RentalID:   rental.ID,
				UserID:     rider.ID,
				Amount:     rental.TotalAmount,
				PaymentVia: seed.via,
				Status:     "completed",
			}
			if err := tx.Create(&payment).Error; err != nil {
				return fmt.Errorf("failed to seed payment: %w", err)
			}
			payments++
		}

		log.Info("database seeded",
			zap.Int("locations", len(locations)),
			zap.Int("bikes", len(bikes)),
			zap.Int("rentals", rentals),
			zap.Int("payments", payments),
		)
		return nil
	})
}
