package relay

import (
	"Lumen/internal/pkg/events"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// 客户端上行消息类型
const (
	MessageJoinRoom = "join_room"
	MessagePing     = "ping"
)

// 服务端下行的控制事件
const (
	EventJoined = "joined"
	EventError  = "error"
	EventPong   = "pong"
)

// ClientMessage 客户端上行消息
type ClientMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// Client 一条 websocket 连接，userID 为 0 表示匿名
type Client struct {
	id     string
	userID uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	// rooms 只在 hub 加锁时读写
	rooms map[string]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint64) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.sendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

// Start 注册到 hub 并启动读写协程
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("relay read failed", "client_id", c.id, "err", err)
			}
			return
		}

		switch msg.Type {
		case MessageJoinRoom:
			c.join(msg.RoomID)
		case MessagePing:
			c.reply(EventPong, nil)
		default:
			c.reply(EventError, map[string]string{"message": "unknown message type"})
		}
	}
}

// join 只允许加入与自己身份一致的房间
func (c *Client) join(room string) {
	if c.userID == 0 || room != events.UserRoom(c.userID) {
		log.Warn("relay join rejected", "client_id", c.id, "user_id", c.userID, "room", room)
		c.reply(EventError, map[string]string{"message": "forbidden room"})
		return
	}
	if c.hub.Join(c, room) {
		c.reply(EventJoined, map[string]string{"roomId": room})
	}
}

// reply 通过 hub 加锁后写入，避免与 Unregister 关闭 send 竞争
func (c *Client) reply(event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	payload, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn("relay write failed", "client_id", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
