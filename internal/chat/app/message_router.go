package app

import (
	"context"
	"sync"
	"time"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/internal/chat/repository"
	"chat_relay_service/pkg/logger"

	"go.uber.org/zap"
)

type roomTracker interface {
	Track(connID, roomID string, role domain.Role)
}

// MessageRouter broadcast chat messages, then persist them in the background
type MessageRouter struct {
	registry       Broadcaster
	history        repository.HistoryRepository
	tracker        roomTracker
	metrics        *Metrics
	persistTimeout time.Duration
	now            func() time.Time

	wg sync.WaitGroup
}

// NewMessageRouter create MessageRouter
func NewMessageRouter(
	registry Broadcaster,
	history repository.HistoryRepository,
	tracker roomTracker,
	metrics *Metrics,
	persistTimeout time.Duration,
) *MessageRouter {
	return &MessageRouter{
		registry:       registry,
		history:        history,
		tracker:        tracker,
		metrics:        metrics,
		persistTimeout: persistTimeout,
		now:            time.Now,
	}
}

// SendMessage relay message from connID to every member of roomID.
// The append to history never delays or undoes the broadcast, its failure is
// only logged and counted. Returns the number of connections reached.
func (r *MessageRouter) SendMessage(
	ctx context.Context,
	connID, roomID string,
	role domain.Role,
	message map[string]interface{},
) (int, error) {
	if roomID == "" {
		return 0, domain.ErrRoomIDRequired
	}
	if !role.Valid() {
		return 0, domain.ErrInvalidRole
	}
	if message == nil {
		return 0, domain.ErrMessageRequired
	}

	entry := domain.ChatMessage{
		ParticipantID: domain.ParticipantID(role, connID),
		Text:          domain.MessageText(message),
		Timestamp:     r.now(),
	}

	// 1. 廣播
	delivered := r.registry.Broadcast(roomID, domain.WSResponse{
		Action:  string(domain.NewMessage),
		Success: true,
		RoomID:  roomID,
		Payload: message,
	})
	if r.tracker != nil {
		r.tracker.Track(connID, roomID, role)
	}

	// 2. 非同步寫入歷史
	r.wg.Add(1)
	go r.persist(context.WithoutCancel(ctx), roomID, role, entry)

	return delivered, nil
}

func (r *MessageRouter) persist(ctx context.Context, roomID string, role domain.Role, entry domain.ChatMessage) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, r.persistTimeout)
	defer cancel()

	if err := r.history.AppendMessage(ctx, roomID, role, entry); err != nil {
		r.metrics.PersistFailed()
		logger.Log.Error("persist message failed",
			zap.String("room_id", roomID),
			zap.String("role", string(role)),
			zap.String("participant_id", entry.ParticipantID),
			zap.Error(err))
		return
	}
	r.metrics.PersistSucceeded()
	logger.Log.Debug("message persisted", zap.String("room_id", roomID), zap.String("participant_id", entry.ParticipantID))
}

// Drain wait for in-flight history writes or ctx
func (r *MessageRouter) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
