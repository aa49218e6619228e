package repository

import (
	"context"
	"time"

	"chat_relay_service/internal/chat/domain"
)

// HistoryRepository per-room append-only message log
// AppendMessage and MarkDisconnected are upserts keyed by room id, a missing
// room is created by the write itself so there is never more than one record.
type HistoryRepository interface {
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	// FindByParticipantID look up the room holding a message of "<role>_<connID>",
	// admin messages are checked before user messages.
	FindByParticipantID(ctx context.Context, connID string) (*domain.ChatRoom, domain.Role, error)
	AppendMessage(ctx context.Context, roomID string, role domain.Role, msg domain.ChatMessage) error
	MarkDisconnected(ctx context.Context, roomID string, role domain.Role, at time.Time) error
	FindAll(ctx context.Context) ([]*domain.ChatRoom, error)
	DeleteAll(ctx context.Context) error
}

// collection name / table prefix shared by the backends
const roomsCollection = "chats"
