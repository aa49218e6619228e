package database

import (
	"fmt"
	"time"

	"chat_relay_service/pkg/config"
	"chat_relay_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresDSN build gorm postgres dsn
func PostgresDSN(c config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

// NewPostgresGorm open postgres through gorm with retry
func NewPostgresGorm(c Connection) (*gorm.DB, error) {
	return openGorm(postgres.Open(c.ConnectStr), c)
}

// NewSQLiteGorm open a sqlite file (or ":memory:") through gorm
func NewSQLiteGorm(path string) (*gorm.DB, error) {
	return openGorm(sqlite.Open(path), Connection{ConnectStr: path})
}

func openGorm(dialector gorm.Dialector, c Connection) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i <= c.RetryCount; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			return db, nil
		}
		logger.Log.Warn("Failed to open gorm database, retrying...",
			zap.Int("attempt", i+1),
			zap.String("dialect", dialector.Name()),
			zap.Error(err),
		)
		if i < c.RetryCount {
			time.Sleep(c.RetryInterval)
		}
	}
	return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
}
