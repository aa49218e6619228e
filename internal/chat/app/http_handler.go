package app

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHTTPHandler 处理聊天室相关的 HTTP 请求
type ChatHTTPHandler struct {
	roomUC  *RoomUseCase
	metrics *Metrics
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(roomUC *RoomUseCase, metrics *Metrics) *ChatHTTPHandler {
	return &ChatHTTPHandler{roomUC: roomUC, metrics: metrics}
}

// StartChatRes new chat room id
type StartChatRes struct {
	ChatRoomID string `json:"chatRoomId"`
}

// FirstUserMessage first message a user wrote in a room
type FirstUserMessage struct {
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FirstMessageRes receive-msg response
type FirstMessageRes struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message,omitempty"`
	FirstUserMessage *FirstUserMessage `json:"firstUserMessage"`
}

// ChatRoomsRes fetch-chat-rooms response
type ChatRoomsRes struct {
	Success   bool               `json:"success"`
	Response  string             `json:"response"`
	ChatRooms []*domain.ChatRoom `json:"chatRooms"`
}

// ChatRoomRes fetch-chat-rooms/:chatRoomId response
type ChatRoomRes struct {
	Success  bool             `json:"success"`
	Response string           `json:"response"`
	ChatRoom *domain.ChatRoom `json:"chatRoom"`
}

// StatusRes generic envelope for failures and purge
type StatusRes struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

// StartChat create a chat room id
// @Summary Start a chat
// @Description Returns a new chat room id, nothing is stored until the first message
// @Tags Chat
// @Produce json
// @Param api-key header string true "API key"
// @Success 200 {object} StartChatRes
// @Failure 401 {object} map[string]string
// @Router /chat/start-chat [post]
func (h *ChatHTTPHandler) StartChat(c *fiber.Ctx) error {
	return c.JSON(StartChatRes{ChatRoomID: h.roomUC.CreateRoom()})
}

// FetchFirstMessage first user message of a room
// @Summary First user message
// @Description Returns the first message a user wrote in the room, null when users never wrote
// @Tags Chat
// @Produce json
// @Param api-key header string true "API key"
// @Param chatRoomId path string true "Chat room id"
// @Success 200 {object} FirstMessageRes
// @Failure 404 {object} StatusRes
// @Failure 500 {object} StatusRes
// @Router /chat/receive-msg/{chatRoomId} [post]
func (h *ChatHTTPHandler) FetchFirstMessage(c *fiber.Ctx) error {
	roomID := c.Params("chatRoomId")

	msg, err := h.roomUC.FirstUserMessage(c.UserContext(), roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(StatusRes{Message: "Chat room not found."})
	}
	if err != nil {
		logger.Log.Error("fetch first user message", zap.String("room_id", roomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(StatusRes{
			Response: "Internal server error",
			Message:  "Something went wrong.",
		})
	}

	if msg == nil {
		return c.JSON(FirstMessageRes{Success: true, Message: "No user messages found."})
	}
	return c.JSON(FirstMessageRes{
		Success: true,
		FirstUserMessage: &FirstUserMessage{
			UserID:    msg.ParticipantID,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		},
	})
}

// FetchAllChatRooms every persisted room
// @Summary List chat rooms
// @Tags Chat Admin
// @Produce json
// @Param admin-key header string true "Admin key"
// @Success 200 {object} ChatRoomsRes
// @Failure 401 {object} map[string]string
// @Failure 500 {object} StatusRes
// @Router /chat/fetch-chat-rooms [get]
func (h *ChatHTTPHandler) FetchAllChatRooms(c *fiber.Ctx) error {
	rooms, err := h.roomUC.ListRooms(c.UserContext())
	if err != nil {
		logger.Log.Error("fetch chat rooms", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(StatusRes{
			Response: "Internal server error",
			Message:  "Something went wrong",
		})
	}
	return c.JSON(ChatRoomsRes{
		Success:   true,
		Response:  "Chat rooms fetched successfully",
		ChatRooms: rooms,
	})
}

// FetchChatRoomByID one persisted room
// @Summary Get chat room
// @Tags Chat Admin
// @Produce json
// @Param admin-key header string true "Admin key"
// @Param chatRoomId path string true "Chat room id"
// @Success 200 {object} ChatRoomRes
// @Failure 404 {object} StatusRes
// @Failure 500 {object} StatusRes
// @Router /chat/fetch-chat-rooms/{chatRoomId} [get]
func (h *ChatHTTPHandler) FetchChatRoomByID(c *fiber.Ctx) error {
	roomID := c.Params("chatRoomId")

	room, err := h.roomUC.GetRoom(c.UserContext(), roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(StatusRes{
			Response: "Chat room not found",
			Message:  "No chat room found with ID: " + roomID,
		})
	}
	if err != nil {
		logger.Log.Error("fetch chat room", zap.String("room_id", roomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(StatusRes{
			Response: "Internal server error",
			Message:  "Something went wrong",
		})
	}
	return c.JSON(ChatRoomRes{
		Success:  true,
		Response: "Chat room fetched successfully",
		ChatRoom: room,
	})
}

// DeleteAllChat purge every room
// @Summary Delete all chat data
// @Tags Chat Admin
// @Produce json
// @Param admin-key header string true "Admin key"
// @Success 200 {object} StatusRes
// @Failure 500 {object} StatusRes
// @Router /chat/delete [delete]
func (h *ChatHTTPHandler) DeleteAllChat(c *fiber.Ctx) error {
	if err := h.roomUC.PurgeAll(c.UserContext()); err != nil {
		logger.Log.Error("delete all chat", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(StatusRes{
			Response: "Something went wrong",
			Message:  "Internal server error",
		})
	}
	logger.Log.Info("all chat data deleted")
	return c.JSON(StatusRes{
		Success:  true,
		Response: "All chat data deleted successfully",
		Message:  "Chat data has been cleared",
	})
}

// Metrics relay counters
// @Summary Relay metrics
// @Tags Chat Admin
// @Produce json
// @Param admin-key header string true "Admin key"
// @Success 200 {object} MetricsSnapshot
// @Router /chat/metrics [get]
func (h *ChatHTTPHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

// ConnectCheck check api connect start
// @Summary Check chat service status
// @Description Returns a simple confirmation message
// @Tags Shared
// @Success 200 {string} string "chat service start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("chat service start!")
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging
// @Tags Shared
// @Param admin-key header string true "Admin key"
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	statusStr := c.Query("status")
	logger.Log.Info("debug", zap.String("status", statusStr))
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	logger.Log.SetDebugMode(status)
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}
