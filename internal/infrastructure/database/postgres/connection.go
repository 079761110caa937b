package postgres

import (
	"fmt"
	"time"

	"trolley-monitor/internal/config"
	"trolley-monitor/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

type DB struct {
	*gorm.DB
}

func NewDB(cfg *config.Config) (*DB, error) {
	dsn := cfg.Database.DSN()

	var gormLogLevel gormLogger.LogLevel
	if cfg.Server.Environment == "production" {
		gormLogLevel = gormLogger.Warn
	} else {
		gormLogLevel = gormLogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
		zap.Int("max_open_connections", 25),
		zap.Int("max_idle_connections", 5),
	)

	return &DB{DB: db}, nil
}

// Migrate creates the schema plus the partial unique indexes that back the
// conditional writes: one open alert per (trolley, kind) and one active
// assignment per trolley.
func (d *DB) Migrate() error {
	if err := d.DB.AutoMigrate(
		&models.StoreModel{},
		&models.TrolleyModel{},
		&models.PositionSampleModel{},
		&models.AlertModel{},
		&models.AssignmentModel{},
		&models.LoyaltyAccountModel{},
	); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open_per_trolley_kind
			ON alerts (trolley_id, kind)
			WHERE resolved = FALSE AND trolley_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_active_per_trolley
			ON trolley_assignments (trolley_id)
			WHERE status IN ('checked_out', 'overdue')`,
	}
	for _, stmt := range indexes {
		if err := d.DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error creating index: %w", err)
		}
	}

	return nil
}

func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) Health() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
