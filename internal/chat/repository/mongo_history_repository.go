package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_relay_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoHistoryRepository struct {
	roomsColl *mongo.Collection
}

// NewMongoHistoryRepository create history repository on the chats collection
func NewMongoHistoryRepository(db *mongo.Database) HistoryRepository {
	return &mongoHistoryRepository{
		roomsColl: db.Collection(roomsCollection),
	}
}

// EnsureMongoIndexes index participant ids used by the disconnect recovery lookup
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(roomsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_messages.participant_id", Value: 1}}},
		{Keys: bson.D{{Key: "admin_messages.participant_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	return err
}

func messagesField(role domain.Role) (string, string, error) {
	switch role {
	case domain.RoleUser:
		return "user_messages", "admin_messages", nil
	case domain.RoleAdmin:
		return "admin_messages", "user_messages", nil
	}
	return "", "", domain.ErrInvalidRole
}

func disconnectedField(role domain.Role) (string, error) {
	switch role {
	case domain.RoleUser:
		return "user_disconnected_at", nil
	case domain.RoleAdmin:
		return "admin_disconnected_at", nil
	}
	return "", domain.ErrInvalidRole
}

// FindByID find room by id
func (r *mongoHistoryRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	return r.findOne(ctx, bson.M{"_id": roomID})
}

// FindByParticipantID find the first room holding a message of the connection
func (r *mongoHistoryRepository) FindByParticipantID(ctx context.Context, connID string) (*domain.ChatRoom, domain.Role, error) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		field, _, _ := messagesField(role)
		room, err := r.findOne(ctx, bson.M{field + ".participant_id": domain.ParticipantID(role, connID)})
		if errors.Is(err, domain.ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, domain.RoleUnknown, err
		}
		return room, role, nil
	}
	return nil, domain.RoleUnknown, domain.ErrRoomNotFound
}

// AppendMessage push msg, creating the room document when missing
func (r *mongoHistoryRepository) AppendMessage(ctx context.Context, roomID string, role domain.Role, msg domain.ChatMessage) error {
	field, other, err := messagesField(role)
	if err != nil {
		return err
	}
	update := bson.M{
		"$push":        bson.M{field: msg},
		"$setOnInsert": bson.M{"created_at": msg.Timestamp, other: bson.A{}},
		"$max":         bson.M{"updated_at": msg.Timestamp},
	}
	return r.upsert(ctx, roomID, update)
}

// MarkDisconnected set the disconnect timestamp of role, creating the room document when missing
func (r *mongoHistoryRepository) MarkDisconnected(ctx context.Context, roomID string, role domain.Role, at time.Time) error {
	field, err := disconnectedField(role)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{field: at},
		"$setOnInsert": bson.M{
			"created_at":     at,
			"user_messages":  bson.A{},
			"admin_messages": bson.A{},
		},
		"$max": bson.M{"updated_at": at},
	}
	return r.upsert(ctx, roomID, update)
}

// FindAll list rooms, oldest first
func (r *mongoHistoryRepository) FindAll(ctx context.Context) ([]*domain.ChatRoom, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.roomsColl.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	defer cur.Close(ctx)

	rooms := []*domain.ChatRoom{}
	for cur.Next(ctx) {
		var room domain.ChatRoom
		if err := cur.Decode(&room); err != nil {
			return nil, fmt.Errorf("decode room: %w", err)
		}
		rooms = append(rooms, normalize(&room))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// DeleteAll purge every room
func (r *mongoHistoryRepository) DeleteAll(ctx context.Context) error {
	_, err := r.roomsColl.DeleteMany(ctx, bson.M{})
	return err
}

func (r *mongoHistoryRepository) findOne(ctx context.Context, filter bson.M) (*domain.ChatRoom, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var room domain.ChatRoom
	err := r.roomsColl.FindOne(ctx, filter, opts).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return normalize(&room), nil
}

func (r *mongoHistoryRepository) upsert(ctx context.Context, roomID string, update bson.M) error {
	_, err := r.roomsColl.UpdateOne(ctx, bson.M{"_id": roomID}, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race on _id, the document exists now
		_, err = r.roomsColl.UpdateOne(ctx, bson.M{"_id": roomID}, update)
	}
	return err
}

// decoded documents may miss the arrays, keep JSON as [] not null
func normalize(room *domain.ChatRoom) *domain.ChatRoom {
	if room.UserMessages == nil {
		room.UserMessages = []domain.ChatMessage{}
	}
	if room.AdminMessages == nil {
		room.AdminMessages = []domain.ChatMessage{}
	}
	return room
}
