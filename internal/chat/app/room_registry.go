package app

import (
	"encoding/json"
	"sort"
	"sync"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/pkg/logger"

	"go.uber.org/zap"
)

// Sink outbound side of one live connection
// Deliver must not block, false means the frame was not queued.
type Sink interface {
	ID() string
	Deliver(data []byte) bool
}

// Broadcaster room scoped fan-out, injected into the router and the session manager
type Broadcaster interface {
	Attach(sink Sink)
	Detach(connID string) []string
	Join(connID, roomID string)
	Leave(connID, roomID string)
	Broadcast(roomID string, resp domain.WSResponse) int
}

// RoomRegistry in-memory room membership of live connections
type RoomRegistry struct {
	mu       sync.Mutex
	sinks    map[string]Sink
	rooms    map[string]map[string]struct{} // roomID -> connIDs
	memberOf map[string]map[string]struct{} // connID -> roomIDs
	metrics  *Metrics
}

// NewRoomRegistry create RoomRegistry
func NewRoomRegistry(metrics *Metrics) *RoomRegistry {
	return &RoomRegistry{
		sinks:    make(map[string]Sink),
		rooms:    make(map[string]map[string]struct{}),
		memberOf: make(map[string]map[string]struct{}),
		metrics:  metrics,
	}
}

// Attach register the outbound sink of a connection
func (g *RoomRegistry) Attach(sink Sink) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sinks[sink.ID()] = sink
}

// Detach drop the connection from every room, return the rooms it was in
func (g *RoomRegistry) Detach(connID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.sinks, connID)
	left := sortedKeys(g.memberOf[connID])
	for _, roomID := range left {
		g.leaveLocked(connID, roomID)
	}
	delete(g.memberOf, connID)
	return left
}

// Join add connID to roomID, idempotent
func (g *RoomRegistry) Join(connID, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rooms[roomID] == nil {
		g.rooms[roomID] = make(map[string]struct{})
	}
	g.rooms[roomID][connID] = struct{}{}

	if g.memberOf[connID] == nil {
		g.memberOf[connID] = make(map[string]struct{})
	}
	g.memberOf[connID][roomID] = struct{}{}
}

// Leave remove connID from roomID, no-op when absent
func (g *RoomRegistry) Leave(connID, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leaveLocked(connID, roomID)
}

func (g *RoomRegistry) leaveLocked(connID, roomID string) {
	if members, ok := g.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(g.rooms, roomID)
		}
	}
	if rooms, ok := g.memberOf[connID]; ok {
		delete(rooms, roomID)
	}
}

// Broadcast deliver resp to every connection in roomID at call time.
// The lock is held for the whole fan-out so concurrent broadcasts reach each
// member in the same order.
func (g *RoomRegistry) Broadcast(roomID string, resp domain.WSResponse) int {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Error("marshal broadcast failed", zap.String("room_id", roomID), zap.Error(err))
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	delivered, dropped := 0, 0
	for connID := range g.rooms[roomID] {
		sink, ok := g.sinks[connID]
		if !ok {
			continue
		}
		if sink.Deliver(data) {
			delivered++
			continue
		}
		dropped++
		logger.Log.Warn("broadcast dropped, connection not accepting frames",
			zap.String("room_id", roomID), zap.String("conn_id", connID))
	}
	g.metrics.Broadcasted(delivered, dropped)
	return delivered
}

// Members connection ids joined to roomID
func (g *RoomRegistry) Members(roomID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sortedKeys(g.rooms[roomID])
}

// Rooms room ids connID is joined to
func (g *RoomRegistry) Rooms(connID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sortedKeys(g.memberOf[connID])
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
