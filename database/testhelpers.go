package database

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns a migrated in-memory sqlite database that is closed
// when the test finishes.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Initialize("sqlite", ":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
