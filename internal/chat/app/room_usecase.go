package app

import (
	"context"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/internal/chat/repository"
	errprocess "chat_relay_service/pkg/err"

	"github.com/google/uuid"
)

// RoomUseCase chat session factory and history queries
type RoomUseCase struct {
	history repository.HistoryRepository
}

// NewRoomUseCase init room use case
func NewRoomUseCase(history repository.HistoryRepository) *RoomUseCase {
	return &RoomUseCase{history: history}
}

// CreateRoom new room id, nothing is stored until the first message or leave
func (uc *RoomUseCase) CreateRoom() string {
	return uuid.New().String()
}

// FirstUserMessage earliest user message of roomID, nil when users never wrote
func (uc *RoomUseCase) FirstUserMessage(ctx context.Context, roomID string) (*domain.ChatMessage, error) {
	room, err := uc.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.FirstUserMessage(), nil
}

// ListRooms every persisted room
func (uc *RoomUseCase) ListRooms(ctx context.Context) ([]*domain.ChatRoom, error) {
	rooms, err := uc.history.FindAll(ctx)
	if err != nil {
		return nil, errprocess.Wrap("list rooms", err)
	}
	return rooms, nil
}

// GetRoom persisted room, domain.ErrRoomNotFound when absent
func (uc *RoomUseCase) GetRoom(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	if roomID == "" {
		return nil, domain.ErrRoomIDRequired
	}
	room, err := uc.history.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room, nil
}

// PurgeAll delete every room record
func (uc *RoomUseCase) PurgeAll(ctx context.Context) error {
	return errprocess.Wrap("purge rooms", uc.history.DeleteAll(ctx))
}
