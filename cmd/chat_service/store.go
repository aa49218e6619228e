package main

import (
	"context"
	"fmt"
	"time"

	"chat_relay_service/internal/chat/repository"
	"chat_relay_service/pkg/config"
	"chat_relay_service/pkg/database"
	"chat_relay_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// closeFunc release the store connection at shutdown
type closeFunc func(ctx context.Context) error

func connection(c config.DatabaseConfig, connectStr string) database.Connection {
	return database.Connection{
		ConnectStr:    connectStr,
		RetryCount:    c.RetryCount,
		RetryInterval: time.Duration(c.RetryInterval) * time.Second,
	}
}

// openHistory 依設定選擇歷史紀錄儲存
func openHistory(ctx context.Context, cfg config.Chat) (repository.HistoryRepository, closeFunc, error) {
	logger.Log.Info("open history store", zap.String("driver", string(cfg.Store.Driver)))

	switch cfg.Store.Driver {
	case config.StoreMongo:
		mongo, err := database.NewMongoDB(ctx, connection(cfg.MongoSQL, database.MongoURI(cfg.MongoSQL)), cfg.MongoSQL.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, mongo.Database); err != nil {
			return nil, nil, err
		}
		return repository.NewMongoHistoryRepository(mongo.Database), mongo.Close, nil

	case config.StorePostgres, config.StoreSQLite:
		var (
			db  *gorm.DB
			err error
		)
		if cfg.Store.Driver == config.StorePostgres {
			db, err = database.NewPostgresGorm(connection(cfg.Postgres, database.PostgresDSN(cfg.Postgres)))
		} else {
			db, err = database.NewSQLiteGorm(cfg.SQLite.Path)
		}
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewGormHistoryRepository(db)
		if err != nil {
			return nil, nil, err
		}
		return repo, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}, nil

	case config.StoreRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisHistoryRepository(client, cfg.Redis.KeyPrefix), func(context.Context) error {
			return client.Close()
		}, nil

	case config.StoreMemory:
		logger.Log.Warn("memory history store, data is lost on restart")
		return repository.NewMemoryHistoryRepository(), func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
