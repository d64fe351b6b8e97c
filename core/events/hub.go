package events

import (
	"sync"
	"time"

	"musiclib/logger"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Type 事件类型
type Type string

const (
	TrackCreated    Type = "track.created"
	TrackUpdated    Type = "track.updated"
	TrackDeleted    Type = "track.deleted"
	FavoriteChanged Type = "favorite.changed"

	PlaylistChanged Type = "playlist.changed" // 旧版歌单成员变化
	PlaylistDeleted Type = "playlist.deleted"

	UserPlaylistCreated Type = "user_playlist.created"
	UserPlaylistUpdated Type = "user_playlist.updated"
	UserPlaylistDeleted Type = "user_playlist.deleted"
)

// Event is one library mutation as pushed to subscribers.
type Event struct {
	Type      Type   `json:"type"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher receives library events. Implementations must not block.
type Publisher interface {
	Publish(e Event)
}

// Publish sends e through p, tolerating a nil publisher.
func Publish(p Publisher, typ Type, id, name string) {
	if p == nil {
		return
	}
	p.Publish(Event{Type: typ, ID: id, Name: name, Timestamp: time.Now().UnixMilli()})
}

// Client 事件订阅者，Conn 为空时只通过 Send 通道接收
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// NewClient creates a subscriber with a buffered send queue.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 64)}
}

// Hub 事件广播中心
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub 创建事件 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环，直到 Stop 被调用
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// 慢消费者直接丢弃本条
					logger.Warn("[Events] subscriber queue full, dropping event")
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements Publisher. Events are dropped when the broadcast queue
// is full.
func (h *Hub) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Error("[Events] marshal event failed", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logger.Warn("[Events] broadcast queue full, dropping event", logger.String("type", string(e.Type)))
	}
}

// ReadPump drains client frames so pings and close frames are handled.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[Events] websocket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

// WritePump 写入消息循环
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
