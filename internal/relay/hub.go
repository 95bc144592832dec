package relay

import (
	"Lumen/internal/pkg/events"
	"Lumen/internal/pkg/metrics"
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// Frame 下发给客户端的消息
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub 单进程内的连接与房间注册表，不跨实例共享
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	sendBuffer int
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		sendBuffer: sendBuffer,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.RelayConnections.Inc()
	log.Info("relay client connected", "client_id", c.id, "user_id", c.userID, "total_clients", total)
}

// Unregister 可重复调用，只有第一次生效
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.RelayConnections.Dec()
	log.Info("relay client disconnected", "client_id", c.id, "user_id", c.userID, "total_clients", total)
}

// Join 把连接加入房间，连接已注销时忽略
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return true
}

// Emit 有 roomId 时只发给房间成员，否则广播；发送缓冲满的连接直接断开
func (h *Hub) Emit(e events.RealtimeEvent) int {
	payload, err := json.Marshal(Frame{Event: e.Event, Data: e.Data})
	if err != nil {
		log.Error("encode relay frame failed", "event", e.Event, "err", err)
		return 0
	}

	mode := metrics.RelayModeBroadcast
	if e.RoomID != "" {
		mode = metrics.RelayModeRoom
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	targets := h.clients
	if e.RoomID != "" {
		targets = h.rooms[e.RoomID]
	}
	for c := range targets {
		select {
		case c.send <- payload:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if delivered > 0 {
		metrics.RelayDeliveriesTotal.WithLabelValues(mode).Add(float64(delivered))
	}
	for _, c := range slow {
		metrics.RelayDeliveriesTotal.WithLabelValues(metrics.RelayModeDropped).Inc()
		log.Warn("relay client too slow, dropping", "client_id", c.id, "user_id", c.userID)
		h.Unregister(c)
	}
	return delivered
}

// Count 在线连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize 房间内的连接数
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close 断开所有连接
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}
