package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/internal/chat/repository"
	"chat_relay_service/pkg/logger"

	"go.uber.org/zap"
)

// session 單一連線狀態
type session struct {
	role  domain.Role
	rooms map[string]domain.Role // active rooms, role used in each
}

// SessionManager connection lifecycle: connect, join, leave, disconnect
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session

	registry Broadcaster
	history  repository.HistoryRepository
	metrics  *Metrics
	now      func() time.Time
}

// NewSessionManager create SessionManager
func NewSessionManager(registry Broadcaster, history repository.HistoryRepository, metrics *Metrics) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session),
		registry: registry,
		history:  history,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Connect register a new connection, role undefined until joinRoom
func (m *SessionManager) Connect(sink Sink) {
	m.mu.Lock()
	m.sessions[sink.ID()] = &session{rooms: make(map[string]domain.Role)}
	m.mu.Unlock()

	m.registry.Attach(sink)
	m.metrics.ConnectionOpened()
	logger.Log.Debug("connection attached", zap.String("conn_id", sink.ID()))
}

// JoinRoom store role, add the connection to roomID.
// Joining another room keeps the previous memberships.
func (m *SessionManager) JoinRoom(connID, roomID string, role domain.Role) error {
	if roomID == "" {
		return domain.ErrRoomIDRequired
	}
	if role != domain.RoleUnknown && !role.Valid() {
		return domain.ErrInvalidRole
	}

	m.mu.Lock()
	s, ok := m.sessions[connID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrUnknownConnection
	}
	s.role = role
	s.rooms[roomID] = role
	m.mu.Unlock()

	m.registry.Join(connID, roomID)
	logger.Log.Info("join room",
		zap.String("conn_id", connID), zap.String("room_id", roomID), zap.String("role", string(role)))
	return nil
}

// Track mark roomID active for connID after it posted there with role
func (m *SessionManager) Track(connID, roomID string, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[connID]
	if !ok {
		return
	}
	if current := s.rooms[roomID]; !current.Valid() {
		s.rooms[roomID] = role
	}
}

// LeaveRoom remove the connection from roomID and stamp the disconnect time
// of its role on the room record, creating the record when absent
func (m *SessionManager) LeaveRoom(ctx context.Context, connID, roomID string) error {
	if roomID == "" {
		return domain.ErrRoomIDRequired
	}

	m.mu.Lock()
	s, ok := m.sessions[connID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrUnknownConnection
	}
	role := s.rooms[roomID]
	if !role.Valid() {
		role = s.role
	}
	delete(s.rooms, roomID)
	m.mu.Unlock()

	m.registry.Leave(connID, roomID)

	if !role.Valid() {
		m.metrics.RoleMissing()
		logger.Log.Warn("leave room without role, disconnect time not recorded",
			zap.String("conn_id", connID), zap.String("room_id", roomID))
		return nil
	}
	m.recordDisconnect(ctx, connID, roomID, role)
	return nil
}

// Disconnect transport closed: drop memberships and stamp every room the
// connection was still active in. Unknown connections fall back to a store
// lookup by participant id.
func (m *SessionManager) Disconnect(ctx context.Context, connID string) {
	m.mu.Lock()
	s, ok := m.sessions[connID]
	delete(m.sessions, connID)
	m.mu.Unlock()

	m.registry.Detach(connID)

	if !ok {
		m.recoverDisconnect(ctx, connID)
		return
	}
	m.metrics.ConnectionClosed()

	roomIDs := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		roomIDs = append(roomIDs, roomID)
	}
	sort.Strings(roomIDs)

	for _, roomID := range roomIDs {
		role := s.rooms[roomID]
		if !role.Valid() {
			role = s.role
		}
		if !role.Valid() {
			m.metrics.RoleMissing()
			logger.Log.Warn("disconnect without role, disconnect time not recorded",
				zap.String("conn_id", connID), zap.String("room_id", roomID))
			continue
		}
		m.recordDisconnect(ctx, connID, roomID, role)
	}
	logger.Log.Debug("connection detached", zap.String("conn_id", connID), zap.Int("rooms", len(roomIDs)))
}

func (m *SessionManager) recoverDisconnect(ctx context.Context, connID string) {
	room, role, err := m.history.FindByParticipantID(ctx, connID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		logger.Log.Debug("disconnect of unknown connection, no history", zap.String("conn_id", connID))
		return
	}
	if err != nil {
		logger.Log.Error("lookup participant failed", zap.String("conn_id", connID), zap.Error(err))
		return
	}
	m.recordDisconnect(ctx, connID, room.ID, role)
}

func (m *SessionManager) recordDisconnect(ctx context.Context, connID, roomID string, role domain.Role) {
	if err := m.history.MarkDisconnected(ctx, roomID, role, m.now()); err != nil {
		m.metrics.DisconnectWriteFailed()
		logger.Log.Error("record disconnect failed",
			zap.String("conn_id", connID), zap.String("room_id", roomID),
			zap.String("role", string(role)), zap.Error(err))
		return
	}
	m.metrics.DisconnectWritten()
	logger.Log.Info("disconnect recorded",
		zap.String("conn_id", connID), zap.String("room_id", roomID), zap.String("role", string(role)))
}

// Role stored role of connID
func (m *SessionManager) Role(connID string) (domain.Role, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[connID]
	if !ok {
		return domain.RoleUnknown, false
	}
	return s.role, true
}

// ActiveRooms rooms whose disconnect time is pending for connID
func (m *SessionManager) ActiveRooms(connID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[connID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}
