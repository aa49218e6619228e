package domain

import (
	"strings"
	"time"
)

// Role participant type inside a room
type Role string

const (
	// RoleUnknown role not set yet (connection never joined with a role)
	RoleUnknown Role = ""
	// RoleUser end user side of a chat
	RoleUser Role = "user"
	// RoleAdmin support / admin side of a chat
	RoleAdmin Role = "admin"
)

// ParseRole validate role string, empty means unknown
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUnknown:
		return RoleUnknown, nil
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return RoleUnknown, ErrInvalidRole
}

// Valid role is user or admin
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParticipantID "<role>_<connectionID>"
func ParticipantID(role Role, connectionID string) string {
	return string(role) + "_" + connectionID
}

// ChatMessage one entry of a room history
type ChatMessage struct {
	ParticipantID string    `bson:"participant_id" json:"participantId"`
	Text          string    `bson:"text" json:"text"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatRoom persisted room history, keyed by room id
type ChatRoom struct {
	ID                  string        `bson:"_id" json:"chatRoomId"`
	UserMessages        []ChatMessage `bson:"user_messages" json:"userMessages"`
	AdminMessages       []ChatMessage `bson:"admin_messages" json:"adminMessages"`
	UserDisconnectedAt  *time.Time    `bson:"user_disconnected_at,omitempty" json:"userDisconnectedAt,omitempty"`
	AdminDisconnectedAt *time.Time    `bson:"admin_disconnected_at,omitempty" json:"adminDisconnectedAt,omitempty"`
	CreatedAt           time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time     `bson:"updated_at" json:"updatedAt"`
}

// NewChatRoom empty room record
func NewChatRoom(id string, now time.Time) *ChatRoom {
	return &ChatRoom{
		ID:            id,
		UserMessages:  []ChatMessage{},
		AdminMessages: []ChatMessage{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Append add msg to the sequence of role
func (r *ChatRoom) Append(role Role, msg ChatMessage) error {
	switch role {
	case RoleUser:
		r.UserMessages = append(r.UserMessages, msg)
	case RoleAdmin:
		r.AdminMessages = append(r.AdminMessages, msg)
	default:
		return ErrInvalidRole
	}
	if msg.Timestamp.After(r.UpdatedAt) {
		r.UpdatedAt = msg.Timestamp
	}
	return nil
}

// MarkDisconnected overwrite the disconnect timestamp of role
func (r *ChatRoom) MarkDisconnected(role Role, at time.Time) error {
	switch role {
	case RoleUser:
		r.UserDisconnectedAt = &at
	case RoleAdmin:
		r.AdminDisconnectedAt = &at
	default:
		return ErrInvalidRole
	}
	if at.After(r.UpdatedAt) {
		r.UpdatedAt = at
	}
	return nil
}

// FirstUserMessage nil when no user wrote yet
func (r *ChatRoom) FirstUserMessage() *ChatMessage {
	if len(r.UserMessages) == 0 {
		return nil
	}
	msg := r.UserMessages[0]
	return &msg
}

// RoleOf find which sequence holds participantID, admin first
func (r *ChatRoom) RoleOf(participantID string) Role {
	for _, m := range r.AdminMessages {
		if m.ParticipantID == participantID {
			return RoleAdmin
		}
	}
	for _, m := range r.UserMessages {
		if m.ParticipantID == participantID {
			return RoleUser
		}
	}
	return RoleUnknown
}

// Clone deep copy
func (r *ChatRoom) Clone() *ChatRoom {
	c := *r
	c.UserMessages = append([]ChatMessage{}, r.UserMessages...)
	c.AdminMessages = append([]ChatMessage{}, r.AdminMessages...)
	if r.UserDisconnectedAt != nil {
		t := *r.UserDisconnectedAt
		c.UserDisconnectedAt = &t
	}
	if r.AdminDisconnectedAt != nil {
		t := *r.AdminDisconnectedAt
		c.AdminDisconnectedAt = &t
	}
	return &c
}
