package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat_relay_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockHistoryRepository Mock HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

// FindByID moke find room by room id
func (m *MockHistoryRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByParticipantID moke find room by connection id
func (m *MockHistoryRepository) FindByParticipantID(ctx context.Context, connID string) (*domain.ChatRoom, domain.Role, error) {
	args := m.Called(ctx, connID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Get(1).(domain.Role), args.Error(2)
	}
	return nil, args.Get(1).(domain.Role), args.Error(2)
}

// AppendMessage moke append message
func (m *MockHistoryRepository) AppendMessage(ctx context.Context, roomID string, role domain.Role, msg domain.ChatMessage) error {
	args := m.Called(ctx, roomID, role, msg)
	return args.Error(0)
}

// MarkDisconnected moke stamp disconnect time
func (m *MockHistoryRepository) MarkDisconnected(ctx context.Context, roomID string, role domain.Role, at time.Time) error {
	args := m.Called(ctx, roomID, role, at)
	return args.Error(0)
}

// FindAll moke list rooms
func (m *MockHistoryRepository) FindAll(ctx context.Context) ([]*domain.ChatRoom, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteAll moke purge
func (m *MockHistoryRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// RecordingSink Sink keeping every delivered frame
type RecordingSink struct {
	id     string
	refuse bool

	mu     sync.Mutex
	frames [][]byte
}

// NewRecordingSink sink accepting every frame
func NewRecordingSink(id string) *RecordingSink {
	return &RecordingSink{id: id}
}

// NewFullSink sink refusing every frame, a saturated connection
func NewFullSink(id string) *RecordingSink {
	return &RecordingSink{id: id, refuse: true}
}

// ID connection id
func (s *RecordingSink) ID() string { return s.id }

// Deliver record data
func (s *RecordingSink) Deliver(data []byte) bool {
	if s.refuse {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]byte(nil), data...))
	return true
}

// Responses decoded frames in delivery order
func (s *RecordingSink) Responses() []domain.WSResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WSResponse, 0, len(s.frames))
	for _, f := range s.frames {
		var resp domain.WSResponse
		if err := json.Unmarshal(f, &resp); err == nil {
			out = append(out, resp)
		}
	}
	return out
}

// Texts message text of every newMessage frame
func (s *RecordingSink) Texts() []string {
	var texts []string
	for _, resp := range s.Responses() {
		if resp.Action == string(domain.NewMessage) {
			texts = append(texts, domain.MessageText(resp.Payload))
		}
	}
	return texts
}
