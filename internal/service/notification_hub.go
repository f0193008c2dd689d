package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"studyshare_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	notifyWriteWait  = 10 * time.Second
	notifyPongWait   = 60 * time.Second
	notifyPingPeriod = (notifyPongWait * 9) / 10
	notifyChannel    = "notify_channel"
)

var notifyUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotifyMessage 推送给前端的通知
type NotifyMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type notifyClient struct {
	hub    *NotifyHub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

func (c *notifyClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(notifyPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(notifyPongWait))
		return nil
	})
	// 通知通道是单向的，上行消息直接丢弃
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *notifyClient) writePump() {
	ticker := time.NewTicker(notifyPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(notifyWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(notifyWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// NotifyHub 用户级 WebSocket 通知中心。
// 注册表是实例状态而非包级全局；多实例部署通过 Redis Pub/Sub 转发。
type NotifyHub struct {
	mu         sync.RWMutex
	clients    map[uint][]*notifyClient
	register   chan *notifyClient
	unregister chan *notifyClient
	redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewNotifyHub(rdb *redis.Client) *NotifyHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotifyHub{
		clients:    make(map[uint][]*notifyClient),
		register:   make(chan *notifyClient),
		unregister: make(chan *notifyClient),
		redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
}

type notifyEnvelope struct {
	UserID  uint            `json:"userId"`
	Payload json.RawMessage `json:"payload"`
}

func (h *NotifyHub) Run() {
	if h.redis != nil {
		pubsub := h.redis.Subscribe(h.ctx, notifyChannel)
		go func() {
			ch := pubsub.Channel()
			for msg := range ch {
				var env notifyEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logger.Log.Error("通知消息解析失败", zap.Error(err))
					continue
				}
				h.pushLocal(env.UserID, env.Payload)
			}
		}()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = append(h.clients[client.userID], client)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			conns := h.clients[client.userID]
			for i, c := range conns {
				if c == client {
					h.clients[client.userID] = append(conns[:i], conns[i+1:]...)
					close(c.send)
					break
				}
			}
			if len(h.clients[client.userID]) == 0 {
				delete(h.clients, client.userID)
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *NotifyHub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for _, c := range conns {
			close(c.send)
		}
		delete(h.clients, userID)
	}
	logger.Log.Info("NotifyHub stopped")
}

// NotifyUser 向指定用户的所有连接推送事件。用户不在线时静默丢弃。
func (h *NotifyHub) NotifyUser(userID uint, event string, payload interface{}) {
	raw, err := json.Marshal(NotifyMessage{Type: event, Data: payload})
	if err != nil {
		return
	}

	if h.redis != nil {
		env, _ := json.Marshal(notifyEnvelope{UserID: userID, Payload: raw})
		h.redis.Publish(h.ctx, notifyChannel, env)
		return
	}
	h.pushLocal(userID, raw)
}

func (h *NotifyHub) pushLocal(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			// 发送缓冲已满，丢弃而不是阻塞推送方
		}
	}
}

func ServeNotifyWs(hub *NotifyHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := notifyUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &notifyClient{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
