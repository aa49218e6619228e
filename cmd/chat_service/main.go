package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"chat_relay_service/cmd/chat_service/docs"
	"chat_relay_service/internal/chat/app"
	"chat_relay_service/internal/chat/router"
	"chat_relay_service/pkg/config"
	"chat_relay_service/pkg/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg, err := config.LoadChat(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config", zap.Error(err))
	}
	logger.Log.SetDebugMode(config.IsLocal())
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	// 1. 建立歷史紀錄儲存
	ctx := context.Background()
	history, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Unable to open history store after retries",
			zap.String("driver", string(cfg.Store.Driver)), zap.Error(err))
	}

	// 2. 初始化 UseCases
	metrics := app.NewMetrics()
	registry := app.NewRoomRegistry(metrics)
	sessions := app.NewSessionManager(registry, history, metrics)
	msgRouter := app.NewMessageRouter(registry, history, sessions, metrics, cfg.Persist.Timeout)
	roomUC := app.NewRoomUseCase(history)

	// 3. 啟動 Fiber
	r := fiber.New(fiber.Config{DisableStartupMessage: config.IsProduction()})
	file, err := os.OpenFile(filepath.Join(config.EnvConfig.ChatServiceLogPath, "access.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("Failed to open access log file", zap.Error(err))
	}
	defer file.Close()

	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, api-key, admin-key",
	}))
	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	// 注册路由
	wsHandler := app.NewChatWebsocketHandler(sessions, msgRouter, metrics, cfg.WebSocket)
	router.RegisterRoutes(r, cfg.Auth, app.NewChatHTTPHandler(roomUC, metrics), wsHandler)

	go func() {
		port := ":" + cfg.Port
		logger.Log.Info(fmt.Sprintf("Chat Service listening on %s", port))
		if err := r.Listen(port); err != nil {
			logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
		}
	}()

	// stop accepting, close live sockets (their disconnects are recorded),
	// flush pending history writes, then release the store
	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"chat-service": func(ctx context.Context) error {
			if err := r.ShutdownWithContext(ctx); err != nil {
				logger.Log.Error("fiber shutdown", zap.Error(err))
			}
			if err := wsHandler.Shutdown(ctx); err != nil {
				logger.Log.Error("websocket connections still open", zap.Error(err))
			}
			if err := msgRouter.Drain(ctx); err != nil {
				logger.Log.Error("pending history writes dropped", zap.Error(err))
			}
			return closeStore(ctx)
		},
	})

	exitCode := <-wait
	logger.Log.Info("chat service exited", zap.Int("code", exitCode))
	logger.Log.Sync()
	os.Exit(exitCode)
}
