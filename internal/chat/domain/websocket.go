package domain

// Action websocket event name
type Action string

const (
	// JoinRoom websocket action joinRoom
	JoinRoom Action = "joinRoom"
	// LeaveRoom websocket action leaveRoom
	LeaveRoom Action = "leaveRoom"
	// UserMessage websocket action userMessage
	UserMessage Action = "userMessage"
	// AdminMessage websocket action adminMessage
	AdminMessage Action = "adminMessage"

	// NewMessage broadcast to every member of a room
	NewMessage Action = "newMessage"
	// ErrorAction reply for a rejected event
	ErrorAction Action = "error"
)

// MessageRole role implied by a message action
func (a Action) MessageRole() (Role, bool) {
	switch a {
	case UserMessage:
		return RoleUser, true
	case AdminMessage:
		return RoleAdmin, true
	}
	return RoleUnknown, false
}

// WSRequest websocket Request
// chatRoomId / userRole are accepted as aliases of roomId / role.
type WSRequest struct {
	Action     string                 `json:"action"`
	RoomID     string                 `json:"roomId"`
	ChatRoomID string                 `json:"chatRoomId"`
	Role       string                 `json:"role"`
	UserRole   string                 `json:"userRole"`
	Message    map[string]interface{} `json:"message"`
}

// Room room id of the request
func (r WSRequest) Room() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.ChatRoomID
}

// RoleName role of the request
func (r WSRequest) RoleName() string {
	if r.Role != "" {
		return r.Role
	}
	return r.UserRole
}

// MessageText text field of a message payload
func MessageText(message map[string]interface{}) string {
	if message == nil {
		return ""
	}
	text, _ := message["text"].(string)
	return text
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	RoomID  string                 `json:"roomId,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
