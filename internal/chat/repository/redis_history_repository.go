package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chat_relay_service/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

// optimistic transaction retries before giving up on a hot room key
const maxTxRetries = 10

type redisHistoryRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisHistoryRepository rooms stored as JSON under <prefix>:room:<id>,
// a sorted set <prefix>:rooms keeps creation order
func NewRedisHistoryRepository(client *redis.Client, prefix string) HistoryRepository {
	if prefix == "" {
		prefix = "chat"
	}
	return &redisHistoryRepository{client: client, prefix: prefix}
}

func (r *redisHistoryRepository) roomKey(roomID string) string {
	return r.prefix + ":room:" + roomID
}

func (r *redisHistoryRepository) indexKey() string {
	return r.prefix + ":rooms"
}

func (r *redisHistoryRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	data, err := r.client.Get(ctx, r.roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return decodeRoom(data)
}

// FindByParticipantID scan every room, admin messages first
func (r *redisHistoryRepository) FindByParticipantID(ctx context.Context, connID string) (*domain.ChatRoom, domain.Role, error) {
	rooms, err := r.FindAll(ctx)
	if err != nil {
		return nil, domain.RoleUnknown, err
	}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		pid := domain.ParticipantID(role, connID)
		for _, room := range rooms {
			if room.RoleOf(pid) == role {
				return room, role, nil
			}
		}
	}
	return nil, domain.RoleUnknown, domain.ErrRoomNotFound
}

func (r *redisHistoryRepository) AppendMessage(ctx context.Context, roomID string, role domain.Role, msg domain.ChatMessage) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	return r.update(ctx, roomID, msg.Timestamp, func(room *domain.ChatRoom) error {
		return room.Append(role, msg)
	})
}

func (r *redisHistoryRepository) MarkDisconnected(ctx context.Context, roomID string, role domain.Role, at time.Time) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	return r.update(ctx, roomID, at, func(room *domain.ChatRoom) error {
		return room.MarkDisconnected(role, at)
	})
}

func (r *redisHistoryRepository) FindAll(ctx context.Context) ([]*domain.ChatRoom, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	rooms := make([]*domain.ChatRoom, 0, len(ids))
	if len(ids) == 0 {
		return rooms, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.roomKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// index entry without document, purged concurrently
			continue
		}
		room, err := decodeRoom([]byte(s))
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (r *redisHistoryRepository) DeleteAll(ctx context.Context) error {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, r.roomKey(id))
		}
		pipe.Del(ctx, r.indexKey())
		return nil
	})
	return err
}

// update read-modify-write of one room under WATCH, retried on conflict
func (r *redisHistoryRepository) update(ctx context.Context, roomID string, now time.Time, mutate func(*domain.ChatRoom) error) error {
	key := r.roomKey(roomID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		var room *domain.ChatRoom
		switch {
		case errors.Is(err, redis.Nil):
			room = domain.NewChatRoom(roomID, now)
		case err != nil:
			return err
		default:
			if room, err = decodeRoom(data); err != nil {
				return err
			}
		}

		if err := mutate(room); err != nil {
			return err
		}
		encoded, err := json.Marshal(room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			pipe.ZAddNX(ctx, r.indexKey(), &redis.Z{
				Score:  float64(room.CreatedAt.UnixMilli()),
				Member: roomID,
			})
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update room %s: too many concurrent writers", roomID)
}

func decodeRoom(data []byte) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return normalize(&room), nil
}
