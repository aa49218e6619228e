package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/internal/chat/repository"

	"github.com/cucumber/godog"
)

type relayFeature struct {
	*relay
	history repository.HistoryRepository
	rooms   *RoomUseCase
	sinks   map[string]*RecordingSink
}

func (f *relayFeature) sink(connID string) *RecordingSink {
	s, ok := f.sinks[connID]
	if !ok {
		s = NewRecordingSink(connID)
		f.sinks[connID] = s
		f.sessions.Connect(s)
	}
	return s
}

func (f *relayFeature) settle() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return f.router.Drain(ctx)
}

func (f *relayFeature) joinsRoomAs(connID, roomID, role string) error {
	f.sink(connID)
	r, err := domain.ParseRole(role)
	if err != nil {
		return err
	}
	return f.sessions.JoinRoom(connID, roomID, r)
}

func (f *relayFeature) sendsToRoomAs(connID, text, roomID, role string) error {
	f.sink(connID)
	_, err := f.router.SendMessage(context.Background(), connID, roomID, domain.Role(role),
		map[string]interface{}{"text": text})
	return err
}

func (f *relayFeature) leavesRoom(connID, roomID string) error {
	return f.sessions.LeaveRoom(context.Background(), connID, roomID)
}

func (f *relayFeature) disconnects(connID string) error {
	if err := f.settle(); err != nil {
		return err
	}
	f.sessions.Disconnect(context.Background(), connID)
	return nil
}

func (f *relayFeature) shouldReceive(connID, texts string) error {
	got := strings.Join(f.sink(connID).Texts(), ",")
	if got != texts {
		return fmt.Errorf("connection %s received %q, want %q", connID, got, texts)
	}
	return nil
}

func (f *relayFeature) shouldReceiveNothing(connID string) error {
	if got := f.sink(connID).Texts(); len(got) != 0 {
		return fmt.Errorf("connection %s received %v", connID, got)
	}
	return nil
}

func (f *relayFeature) room(roomID string) (*domain.ChatRoom, error) {
	if err := f.settle(); err != nil {
		return nil, err
	}
	return f.history.FindByID(context.Background(), roomID)
}

func (f *relayFeature) shouldHaveMessages(roomID string, users, admins int) error {
	room, err := f.room(roomID)
	if err != nil {
		return err
	}
	if len(room.UserMessages) != users || len(room.AdminMessages) != admins {
		return fmt.Errorf("room %s has %d user / %d admin messages", roomID, len(room.UserMessages), len(room.AdminMessages))
	}
	return nil
}

func (f *relayFeature) firstUserMessageShouldBe(roomID, text string) error {
	if err := f.settle(); err != nil {
		return err
	}
	msg, err := f.rooms.FirstUserMessage(context.Background(), roomID)
	if err != nil {
		return err
	}
	if msg == nil || msg.Text != text {
		return fmt.Errorf("first user message of %s is %v, want %q", roomID, msg, text)
	}
	return nil
}

func (f *relayFeature) disconnectTime(roomID, role string) (*time.Time, error) {
	room, err := f.room(roomID)
	if err != nil {
		return nil, err
	}
	if domain.Role(role) == domain.RoleAdmin {
		return room.AdminDisconnectedAt, nil
	}
	return room.UserDisconnectedAt, nil
}

func (f *relayFeature) shouldHaveDisconnectTime(roomID, role string) error {
	at, err := f.disconnectTime(roomID, role)
	if err != nil {
		return err
	}
	if at == nil {
		return fmt.Errorf("room %s has no %s disconnect time", roomID, role)
	}
	return nil
}

func (f *relayFeature) shouldNotHaveDisconnectTime(roomID, role string) error {
	at, err := f.disconnectTime(roomID, role)
	if err != nil {
		return err
	}
	if at != nil {
		return fmt.Errorf("room %s has %s disconnect time %v", roomID, role, at)
	}
	return nil
}

func (f *relayFeature) shouldNotExist(roomID string) error {
	_, err := f.room(roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return nil
	}
	return fmt.Errorf("room %s exists (err=%v)", roomID, err)
}

func InitializeRelayScenario(ctx *godog.ScenarioContext) {
	history := repository.NewMemoryHistoryRepository()
	f := &relayFeature{
		relay:   newRelay(history),
		history: history,
		rooms:   NewRoomUseCase(history),
		sinks:   make(map[string]*RecordingSink),
	}

	ctx.Step(`^connection "([^"]*)" joins room "([^"]*)" as "([^"]*)"$`, f.joinsRoomAs)
	ctx.Step(`^connection "([^"]*)" sends "([^"]*)" to room "([^"]*)" as "([^"]*)"$`, f.sendsToRoomAs)
	ctx.Step(`^connection "([^"]*)" leaves room "([^"]*)"$`, f.leavesRoom)
	ctx.Step(`^connection "([^"]*)" disconnects$`, f.disconnects)
	ctx.Step(`^connection "([^"]*)" should receive "([^"]*)"$`, f.shouldReceive)
	ctx.Step(`^connection "([^"]*)" should receive nothing$`, f.shouldReceiveNothing)
	ctx.Step(`^room "([^"]*)" should have (\d+) user messages and (\d+) admin messages$`, f.shouldHaveMessages)
	ctx.Step(`^the first user message of room "([^"]*)" should be "([^"]*)"$`, f.firstUserMessageShouldBe)
	ctx.Step(`^room "([^"]*)" should have a "([^"]*)" disconnect time$`, f.shouldHaveDisconnectTime)
	ctx.Step(`^room "([^"]*)" should not have a "([^"]*)" disconnect time$`, f.shouldNotHaveDisconnectTime)
	ctx.Step(`^room "([^"]*)" should not exist$`, f.shouldNotExist)

	// background writes of this scenario end before the next one starts
	ctx.After(func(c context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		return c, f.settle()
	})
}

func TestRelayFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "chat relay",
		ScenarioInitializer: InitializeRelayScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
