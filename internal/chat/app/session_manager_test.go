package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat_relay_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSessions(repo *MockHistoryRepository) (*SessionManager, *RoomRegistry, *Metrics) {
	metrics := NewMetrics()
	registry := NewRoomRegistry(metrics)
	sessions := NewSessionManager(registry, repo, metrics)
	return sessions, registry, metrics
}

// 測試 JoinRoom
func TestSessionManager_JoinRoom(t *testing.T) {
	repo := new(MockHistoryRepository)
	sessions, registry, _ := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))

	err := sessions.JoinRoom("c1", "room-1", domain.RoleUser)

	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, registry.Members("room-1"))
	role, ok := sessions.Role("c1")
	assert.True(t, ok)
	assert.Equal(t, domain.RoleUser, role)
	repo.AssertNotCalled(t, "MarkDisconnected", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionManager_JoinRoomValidation(t *testing.T) {
	repo := new(MockHistoryRepository)
	sessions, registry, _ := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))

	assert.ErrorIs(t, sessions.JoinRoom("c1", "", domain.RoleUser), domain.ErrRoomIDRequired)
	assert.ErrorIs(t, sessions.JoinRoom("c1", "room-1", domain.Role("guest")), domain.ErrInvalidRole)
	assert.ErrorIs(t, sessions.JoinRoom("nobody", "room-1", domain.RoleUser), domain.ErrUnknownConnection)
	assert.Empty(t, registry.Members("room-1"))
}

func TestSessionManager_JoinWithoutRoleKeepsRoleUndefined(t *testing.T) {
	repo := new(MockHistoryRepository)
	sessions, registry, _ := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))

	require.NoError(t, sessions.JoinRoom("c1", "room-1", domain.RoleUnknown))

	assert.Equal(t, []string{"c1"}, registry.Members("room-1"))
	role, _ := sessions.Role("c1")
	assert.Equal(t, domain.RoleUnknown, role)
}

// 測試 LeaveRoom
func TestSessionManager_LeaveRoomRecordsDisconnect(t *testing.T) {
	repo := new(MockHistoryRepository)
	repo.On("MarkDisconnected", mock.Anything, "room-1", domain.RoleAdmin, mock.AnythingOfType("time.Time")).Return(nil).Once()

	sessions, registry, metrics := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))
	require.NoError(t, sessions.JoinRoom("c1", "room-1", domain.RoleAdmin))

	require.NoError(t, sessions.LeaveRoom(context.Background(), "c1", "room-1"))

	assert.Empty(t, registry.Members("room-1"))
	assert.Empty(t, sessions.ActiveRooms("c1"))
	assert.Equal(t, int64(1), metrics.Snapshot().DisconnectWrites)

	// the room is no longer active, disconnect writes nothing more
	sessions.Disconnect(context.Background(), "c1")
	repo.AssertExpectations(t)
}

func TestSessionManager_LeaveRoomWithoutRoleSkipsWrite(t *testing.T) {
	repo := new(MockHistoryRepository)
	sessions, registry, metrics := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))
	require.NoError(t, sessions.JoinRoom("c1", "room-1", domain.RoleUnknown))

	require.NoError(t, sessions.LeaveRoom(context.Background(), "c1", "room-1"))

	assert.Empty(t, registry.Members("room-1"))
	assert.Equal(t, int64(1), metrics.Snapshot().RoleMissing)
	repo.AssertNotCalled(t, "MarkDisconnected", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionManager_LeaveRoomWriteFailureIsSwallowed(t *testing.T) {
	repo := new(MockHistoryRepository)
	repo.On("MarkDisconnected", mock.Anything, "room-1", domain.RoleUser, mock.Anything).Return(errors.New("store down"))

	sessions, _, metrics := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))
	require.NoError(t, sessions.JoinRoom("c1", "room-1", domain.RoleUser))

	assert.NoError(t, sessions.LeaveRoom(context.Background(), "c1", "room-1"))
	assert.Equal(t, int64(1), metrics.Snapshot().DisconnectWriteFailures)
	repo.AssertExpectations(t)
}

// 測試 Disconnect
func TestSessionManager_DisconnectStampsEveryActiveRoom(t *testing.T) {
	repo := new(MockHistoryRepository)
	repo.On("MarkDisconnected", mock.Anything, "room-1", domain.RoleUser, mock.Anything).Return(nil).Once()
	repo.On("MarkDisconnected", mock.Anything, "room-2", domain.RoleUser, mock.Anything).Return(nil).Once()

	sessions, registry, metrics := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))
	require.NoError(t, sessions.JoinRoom("c1", "room-1", domain.RoleUser))
	require.NoError(t, sessions.JoinRoom("c1", "room-2", domain.RoleUser))

	sessions.Disconnect(context.Background(), "c1")

	assert.Empty(t, registry.Rooms("c1"))
	_, ok := sessions.Role("c1")
	assert.False(t, ok)
	snap := metrics.Snapshot()
	assert.Equal(t, int64(0), snap.ActiveConnections)
	assert.Equal(t, int64(2), snap.DisconnectWrites)
	repo.AssertExpectations(t)
}

func TestSessionManager_DisconnectUsesRoleOfTrackedRoom(t *testing.T) {
	repo := new(MockHistoryRepository)
	repo.On("MarkDisconnected", mock.Anything, "room-1", domain.RoleAdmin, mock.Anything).Return(nil).Once()

	sessions, _, _ := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))
	sessions.Track("c1", "room-1", domain.RoleAdmin)
	assert.Equal(t, []string{"room-1"}, sessions.ActiveRooms("c1"))

	sessions.Disconnect(context.Background(), "c1")
	repo.AssertExpectations(t)
}

func TestSessionManager_DisconnectWithoutRoomsWritesNothing(t *testing.T) {
	repo := new(MockHistoryRepository)
	sessions, _, _ := newTestSessions(repo)
	sessions.Connect(NewRecordingSink("c1"))

	sessions.Disconnect(context.Background(), "c1")

	repo.AssertNotCalled(t, "MarkDisconnected", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "FindByParticipantID", mock.Anything, mock.Anything)
}

func TestSessionManager_DisconnectUnknownConnectionRecoversFromStore(t *testing.T) {
	repo := new(MockHistoryRepository)
	room := domain.NewChatRoom("room-7", time.Now())
	repo.On("FindByParticipantID", mock.Anything, "lost").Return(room, domain.RoleAdmin, nil).Once()
	repo.On("MarkDisconnected", mock.Anything, "room-7", domain.RoleAdmin, mock.Anything).Return(nil).Once()

	sessions, _, _ := newTestSessions(repo)
	sessions.Disconnect(context.Background(), "lost")

	repo.AssertExpectations(t)
}

func TestSessionManager_DisconnectUnknownConnectionWithoutHistoryIsNoop(t *testing.T) {
	repo := new(MockHistoryRepository)
	repo.On("FindByParticipantID", mock.Anything, "ghost").Return(nil, domain.RoleUnknown, domain.ErrRoomNotFound).Once()

	sessions, _, metrics := newTestSessions(repo)
	sessions.Disconnect(context.Background(), "ghost")

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkDisconnected", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, int64(0), metrics.Snapshot().DisconnectWriteFailures)
}
