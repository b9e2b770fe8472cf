package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bewie03/epok/internal/features/raffle/repository"
	"github.com/bewie03/epok/internal/features/raffle/repository/postgres"
)

// GetEmptyTestDB returns a migrated sqlite database in a temp dir.
// One connection serializes transactions the way row locks would.
func GetEmptyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "raffle.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := postgres.NewRaffleRepository(db).Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// GetTestRepository is GetEmptyTestDB wrapped in the raffle repository.
func GetTestRepository(t *testing.T) repository.RaffleRepository {
	t.Helper()
	return postgres.NewRaffleRepository(GetEmptyTestDB(t))
}
