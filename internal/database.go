package internal

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/models/gorm"
)

var DB *gormdb.DB

func InitDB(cfg *config.Config, logger *zap.Logger) error {
	var err error
	DB, err = gormdb.Open(dialector(&cfg.Database), &gormdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.DBName))

	if err := AutoMigrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func dialector(cfg *config.DatabaseConfig) gormdb.Dialector {
	if cfg.Driver == "postgres" {
		return postgres.Open(cfg.DSN())
	}
	return mysql.Open(cfg.DSN())
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gormdb.DB) error {
	return db.AutoMigrate(
		&gorm.Account{},
		&gorm.FormRecord{},
		&gorm.ResponseRecord{},
		&gorm.PaymentTransaction{},
	)
}

func CloseDB() {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
