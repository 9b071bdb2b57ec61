package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

// Open picks the dialector from cfg and tunes the connection pool. It does not
// migrate.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "", "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabasePath))
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}

	return db, nil
}

// SQLiteDSN turns a file path into a DSN with foreign keys on and write
// transactions taking the database lock at BEGIN, so two admissions never read
// the same capacity snapshot.
func SQLiteDSN(path string) string {
	if strings.HasPrefix(path, "file:") && strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}
