package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat_relay_service/internal/chat/domain"
)

type memoryHistoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.ChatRoom
}

// NewMemoryHistoryRepository in process history, used by tests and the memory driver
func NewMemoryHistoryRepository() HistoryRepository {
	return &memoryHistoryRepository{
		rooms: make(map[string]*domain.ChatRoom),
	}
}

func (r *memoryHistoryRepository) FindByID(_ context.Context, roomID string) (*domain.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (r *memoryHistoryRepository) FindByParticipantID(_ context.Context, connID string) (*domain.ChatRoom, domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		pid := domain.ParticipantID(role, connID)
		for _, room := range r.sortedLocked() {
			if room.RoleOf(pid) == role {
				return room.Clone(), role, nil
			}
		}
	}
	return nil, domain.RoleUnknown, domain.ErrRoomNotFound
}

func (r *memoryHistoryRepository) AppendMessage(_ context.Context, roomID string, role domain.Role, msg domain.ChatMessage) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(roomID, msg.Timestamp).Append(role, msg)
}

func (r *memoryHistoryRepository) MarkDisconnected(_ context.Context, roomID string, role domain.Role, at time.Time) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(roomID, at).MarkDisconnected(role, at)
}

func (r *memoryHistoryRepository) FindAll(_ context.Context) ([]*domain.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := r.sortedLocked()
	out := make([]*domain.ChatRoom, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Clone())
	}
	return out, nil
}

func (r *memoryHistoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = make(map[string]*domain.ChatRoom)
	return nil
}

func (r *memoryHistoryRepository) upsertLocked(roomID string, at time.Time) *domain.ChatRoom {
	room, ok := r.rooms[roomID]
	if !ok {
		room = domain.NewChatRoom(roomID, at)
		r.rooms[roomID] = room
	}
	return room
}

// oldest first, same order as the other backends
func (r *memoryHistoryRepository) sortedLocked() []*domain.ChatRoom {
	rooms := make([]*domain.ChatRoom, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}
