// Package database opens the gorm connection for the configured driver.
package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

var DB *gorm.DB

// Connect opens the configured database, sizes the pool and pings it.
// Errors are returned so the caller can exit cleanly.
func Connect() error {
	db, err := Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(config.GetInt64("DB_MAX_OPEN_CONNS", 25)))
	sqlDB.SetMaxIdleConns(int(config.GetInt64("DB_MAX_IDLE_CONNS", 10)))
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}

	DB = db
	return nil
}

// Open builds a *gorm.DB for driver/dsn without touching the global handle.
func Open(driver, dsn string) (*gorm.DB, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: slowQueryLogger()})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	return db, nil
}

// slowQueryLogger routes gorm warnings (slow queries, errors other than
// record-not-found) into the slog logger. DB_SLOW_QUERY_MS sets the
// threshold.
func slowQueryLogger() gormlogger.Interface {
	return gormlogger.New(
		slog.NewLogLogger(logger.L.Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             time.Duration(config.GetInt64("DB_SLOW_QUERY_MS", 200)) * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}
