package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_relay_service/internal/chat/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chatRoomRow struct {
	ID                  string `gorm:"primaryKey;size:64"`
	UserDisconnectedAt  *time.Time
	AdminDisconnectedAt *time.Time
	CreatedAt           time.Time `gorm:"index"`
	UpdatedAt           time.Time
	Messages            []chatMessageRow `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (chatRoomRow) TableName() string { return roomsCollection }

type chatMessageRow struct {
	ID            uint   `gorm:"primaryKey"`
	RoomID        string `gorm:"size:64;index"`
	Role          string `gorm:"size:8"`
	ParticipantID string `gorm:"size:128;index"`
	Text          string
	SentAt        time.Time
}

func (chatMessageRow) TableName() string { return roomsCollection + "_messages" }

type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository create history repository on postgres or sqlite, migrates the tables
func NewGormHistoryRepository(db *gorm.DB) (HistoryRepository, error) {
	if err := db.AutoMigrate(&chatRoomRow{}, &chatMessageRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate chat tables: %w", err)
	}
	return &gormHistoryRepository{db: db}, nil
}

func (r *gormHistoryRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	var row chatRoomRow
	err := r.withMessages(ctx).First(&row, "id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *gormHistoryRepository) FindByParticipantID(ctx context.Context, connID string) (*domain.ChatRoom, domain.Role, error) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		var msg chatMessageRow
		err := r.db.WithContext(ctx).
			Where("participant_id = ? AND role = ?", domain.ParticipantID(role, connID), string(role)).
			Order("id asc").
			First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, domain.RoleUnknown, err
		}
		room, err := r.FindByID(ctx, msg.RoomID)
		if err != nil {
			return nil, domain.RoleUnknown, err
		}
		return room, role, nil
	}
	return nil, domain.RoleUnknown, domain.ErrRoomNotFound
}

// AppendMessage upsert the room row then insert the message, in one transaction
func (r *gormHistoryRepository) AppendMessage(ctx context.Context, roomID string, role domain.Role, msg domain.ChatMessage) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room := chatRoomRow{ID: roomID, CreatedAt: msg.Timestamp, UpdatedAt: msg.Timestamp}
		if err := upsertRoom(tx, &room, map[string]interface{}{"updated_at": latestUpdatedAt(tx)}); err != nil {
			return err
		}
		return tx.Create(&chatMessageRow{
			RoomID:        roomID,
			Role:          string(role),
			ParticipantID: msg.ParticipantID,
			Text:          msg.Text,
			SentAt:        msg.Timestamp,
		}).Error
	})
}

func (r *gormHistoryRepository) MarkDisconnected(ctx context.Context, roomID string, role domain.Role, at time.Time) error {
	room := chatRoomRow{ID: roomID, CreatedAt: at, UpdatedAt: at}
	var column string
	switch role {
	case domain.RoleUser:
		room.UserDisconnectedAt, column = &at, "user_disconnected_at"
	case domain.RoleAdmin:
		room.AdminDisconnectedAt, column = &at, "admin_disconnected_at"
	default:
		return domain.ErrInvalidRole
	}
	tx := r.db.WithContext(ctx)
	return upsertRoom(tx, &room, map[string]interface{}{column: at, "updated_at": latestUpdatedAt(tx)})
}

func (r *gormHistoryRepository) FindAll(ctx context.Context) ([]*domain.ChatRoom, error) {
	var rows []chatRoomRow
	if err := r.withMessages(ctx).Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	rooms := make([]*domain.ChatRoom, 0, len(rows))
	for i := range rows {
		rooms = append(rooms, rows[i].toDomain())
	}
	return rooms, nil
}

func (r *gormHistoryRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&chatMessageRow{}).Error; err != nil {
			return err
		}
		return all.Delete(&chatRoomRow{}).Error
	})
}

func (r *gormHistoryRepository) withMessages(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
}

// INSERT ... ON CONFLICT (id) DO UPDATE, works on postgres and sqlite
func upsertRoom(tx *gorm.DB, room *chatRoomRow, onConflict map[string]interface{}) error {
	return tx.Omit("Messages").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(onConflict),
	}).Create(room).Error
}

// latestUpdatedAt keep updated_at monotonic when writes land out of order
func latestUpdatedAt(tx *gorm.DB) clause.Expr {
	fn := "MAX" // sqlite has no GREATEST, its multi-argument MAX is scalar
	if tx.Dialector.Name() == "postgres" {
		fn = "GREATEST"
	}
	return gorm.Expr(fmt.Sprintf("%s(%s.updated_at, excluded.updated_at)", fn, roomsCollection))
}

func (row *chatRoomRow) toDomain() *domain.ChatRoom {
	room := domain.NewChatRoom(row.ID, row.CreatedAt)
	room.UpdatedAt = row.UpdatedAt
	room.UserDisconnectedAt = row.UserDisconnectedAt
	room.AdminDisconnectedAt = row.AdminDisconnectedAt
	for _, m := range row.Messages {
		msg := domain.ChatMessage{ParticipantID: m.ParticipantID, Text: m.Text, Timestamp: m.SentAt}
		switch domain.Role(m.Role) {
		case domain.RoleUser:
			room.UserMessages = append(room.UserMessages, msg)
		case domain.RoleAdmin:
			room.AdminMessages = append(room.AdminMessages, msg)
		}
	}
	return room
}
