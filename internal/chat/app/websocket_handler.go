package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chat_relay_service/internal/chat/domain"
	"chat_relay_service/pkg/config"
	errprocess "chat_relay_service/pkg/err"
	"chat_relay_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	sessions *SessionManager
	router   *MessageRouter
	metrics  *Metrics

	pingInterval time.Duration
	sendBuffer   int

	mu      sync.Mutex
	clients map[string]*wsClient
	closing bool
	live    sync.WaitGroup
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	sessions *SessionManager,
	router *MessageRouter,
	metrics *Metrics,
	cfg config.WebSocketConfig,
) *ChatWebsocketHandler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	return &ChatWebsocketHandler{
		sessions:     sessions,
		router:       router,
		metrics:      metrics,
		pingInterval: cfg.PingInterval,
		sendBuffer:   cfg.SendBuffer,
		clients:      make(map[string]*wsClient),
	}
}

// wsClient outbound queue of one websocket, implements Sink
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn, buffer int) *wsClient {
	return &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *wsClient) ID() string { return c.id }

// Deliver queue data without blocking, a full queue closes the client
func (c *wsClient) Deliver(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		logger.Log.Warn("send queue full, closing connection", zap.String("conn_id", c.id))
		c.close()
		return false
	}
}

func (c *wsClient) reply(resp domain.WSResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Errorf("marshal response error:", err)
		return
	}
	c.Deliver(b)
}

// close unblock both pumps, the read side through the socket
func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump 所有寫入socket的動作集中於此
func (c *wsClient) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Log.Error("write message error", zap.String("conn_id", c.id), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			// 定期發送 Ping
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Log.Error("ping error", zap.String("conn_id", c.id), zap.Error(err))
				c.close()
				return
			}
			logger.Log.Debug("ping sent", zap.String("conn_id", c.id))
		case <-c.done:
			return
		}
	}
}

// track register a live client, false once Shutdown started
func (h *ChatWebsocketHandler) track(client *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.clients[client.id] = client
	h.live.Add(1)
	return true
}

func (h *ChatWebsocketHandler) untrack(client *wsClient) {
	h.mu.Lock()
	delete(h.clients, client.id)
	h.mu.Unlock()
	h.live.Done()
}

// Shutdown refuse new connections, close the live ones and wait until every
// handler has recorded its disconnect. No SendMessage runs after it returns nil.
func (h *ChatWebsocketHandler) Shutdown(ctx context.Context) error {
	// untrack needs mu, so no conn is handed back to the pool while we close it
	h.mu.Lock()
	h.closing = true
	logger.Log.Info("closing websocket connections", zap.Int("count", len(h.clients)))
	for _, c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), time.Now().Add(time.Second))
		c.close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.live.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	client := newWSClient(conn, h.sendBuffer)
	log := logger.Log.With(zap.String("conn_id", client.id))
	if !h.track(client) {
		log.Warn("websocket refused, server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer h.untrack(client)
	log.Info("websocket open", zap.String("remote", conn.RemoteAddr().String()))

	h.sessions.Connect(client)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		client.writePump(h.pingInterval)
	}()

	defer func() {
		client.close()
		<-pumpDone
		h.sessions.Disconnect(ctx, client.id)
		log.Info("websocket close")
	}()

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		log.Debug("received pong")
		return nil
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				log.Info("connection closed")
			} else {
				//直接斷線 1006
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		if mt != websocket.TextMessage {
			client.reply(errorResponse("", "unsupported message type"))
			continue
		}
		h.dispatch(ctx, client, message)
	}
}

// dispatch one inbound event, a panic is reported to the client and the loop goes on
func (h *ChatWebsocketHandler) dispatch(ctx context.Context, client *wsClient, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			h.metrics.HandlerPanicked()
			logger.Log.Error("websocket handler panic", zap.String("conn_id", client.id), zap.String("panic", fmt.Sprint(rec)))
			client.reply(errorResponse("", "internal error"))
		}
	}()

	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		err = errprocess.Set("invalid websocket frame", zap.String("conn_id", client.id), zap.Error(err))
		client.reply(errorResponse("", err.Error()))
		return
	}
	h.metrics.EventReceived()

	action := domain.Action(req.Action)
	switch action {
	case domain.JoinRoom:
		role, err := domain.ParseRole(req.RoleName())
		if err == nil {
			err = h.sessions.JoinRoom(client.id, req.Room(), role)
		}
		client.reply(ackResponse(req, err, map[string]interface{}{
			"connectionId": client.id,
			"role":         string(role),
		}))

	case domain.LeaveRoom:
		err := h.sessions.LeaveRoom(ctx, client.id, req.Room())
		client.reply(ackResponse(req, err, nil))

	case domain.UserMessage, domain.AdminMessage:
		role, _ := action.MessageRole()
		if _, err := h.router.SendMessage(ctx, client.id, req.Room(), role, req.Message); err != nil {
			client.reply(ackResponse(req, err, nil))
		}

	default:
		client.reply(errorResponse(req.Action, "unknown action"))
	}
}

func ackResponse(req domain.WSRequest, err error, payload map[string]interface{}) domain.WSResponse {
	resp := domain.WSResponse{Action: req.Action, Success: err == nil, RoomID: req.Room(), Payload: payload}
	if err != nil {
		resp.Error = err.Error()
		resp.Payload = nil
		logger.Log.Warn("websocket err", zap.String("action", req.Action), zap.String("room_id", req.Room()), zap.Error(err))
	}
	return resp
}

func errorResponse(action, msg string) domain.WSResponse {
	resp := domain.WSResponse{Action: string(domain.ErrorAction), Success: false, Error: msg}
	if action != "" {
		resp.Payload = map[string]interface{}{"action": action}
	}
	return resp
}
