//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"chat_relay_service/pkg/config"
	"chat_relay_service/pkg/database"
	"chat_relay_service/pkg/logger"
	testtool "chat_relay_service/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// **測試用的容器**
var (
	mongoDB        *database.MongoDB
	redisConfig    config.RedisConfig
	postgresConfig config.DatabaseConfig
)

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	fmt.Printf("✅ MongoDB running at %s:%s\n", mongoHost, mongoPort)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}
	fmt.Printf("✅ Redis running at %s:%s\n", redisHost, redisPort)

	// **啟動 PostgreSQL**
	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}
	fmt.Printf("✅ PostgreSQL running at %s:%s\n", pgHost, pgPort)

	mongoPortNum, _ := strconv.Atoi(mongoPort)
	mongoDB, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    database.MongoURI(config.DatabaseConfig{Host: mongoHost, Port: mongoPortNum}),
		RetryCount:    5,
		RetryInterval: time.Second,
	}, "test_chat_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	redisConfig = config.RedisConfig{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort)}

	pgPortNum, _ := strconv.Atoi(pgPort)
	postgresConfig = config.DatabaseConfig{
		Host: pgHost, Port: pgPortNum, User: "chat", Password: "chat", Database: "chat",
		RetryCount: 5, RetryInterval: 1,
	}

	// **執行測試**
	code := m.Run()

	// **清理測試環境**
	_ = mongoDB.Close(ctx)
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = pgContainer.Terminate(ctx)

	os.Exit(code)
}

func TestMongoHistoryRepository(t *testing.T) {
	runHistoryRepositoryContract(t, func(t *testing.T) HistoryRepository {
		ctx := context.Background()
		require.NoError(t, mongoDB.Database.Collection(roomsCollection).Drop(ctx))
		require.NoError(t, EnsureMongoIndexes(ctx, mongoDB.Database))
		return NewMongoHistoryRepository(mongoDB.Database)
	})
}

func TestRedisHistoryRepository(t *testing.T) {
	runHistoryRepositoryContract(t, func(t *testing.T) HistoryRepository {
		client, err := database.NewRedisClient(context.Background(), redisConfig)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		// fresh prefix per case keeps the cases apart
		return NewRedisHistoryRepository(client, "test-"+uuid.New().String())
	})
}

func TestGormHistoryRepository_Postgres(t *testing.T) {
	runHistoryRepositoryContract(t, func(t *testing.T) HistoryRepository {
		db, err := database.NewPostgresGorm(database.Connection{
			ConnectStr:    database.PostgresDSN(postgresConfig),
			RetryCount:    postgresConfig.RetryCount,
			RetryInterval: time.Duration(postgresConfig.RetryInterval) * time.Second,
		})
		require.NoError(t, err)
		repo, err := NewGormHistoryRepository(db)
		require.NoError(t, err)
		require.NoError(t, repo.DeleteAll(context.Background()))
		return repo
	})
}
