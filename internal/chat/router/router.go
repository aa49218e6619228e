package router

import (
	"context"

	"chat_relay_service/internal/chat/app"
	"chat_relay_service/pkg/config"
	"chat_relay_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天室相关的路由
// @title Chat Relay Service API
// @version 1.0
// @description Real-time chat relay, HTTP side
// @host localhost:8090
// @BasePath /
func RegisterRoutes(
	r *fiber.App,
	auth config.AuthConfig,
	httpHandler *app.ChatHTTPHandler,
	chatWebsocket *app.ChatWebsocketHandler,
) {
	apiKey := middlewares.APIKeyMiddleware(auth.APIKey)
	adminKey := middlewares.AdminKeyMiddleware(auth.AdminKey)

	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)
	r.Post("/debug", adminKey, app.DebugLogFlag)

	chat := r.Group("/chat")

	chat.Get("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	chat.Post("/start-chat", apiKey, httpHandler.StartChat)
	chat.Post("/receive-msg/:chatRoomId", apiKey, httpHandler.FetchFirstMessage)

	chat.Get("/fetch-chat-rooms", adminKey, httpHandler.FetchAllChatRooms)
	chat.Get("/fetch-chat-rooms/:chatRoomId", adminKey, httpHandler.FetchChatRoomByID)
	chat.Delete("/delete", adminKey, httpHandler.DeleteAllChat)
	chat.Get("/metrics", adminKey, httpHandler.Metrics)
}
