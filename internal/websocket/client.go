package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"SuperRPS/internal/relay"
	"SuperRPS/internal/utils"

	"github.com/gorilla/websocket"
)

type Client struct {
	id      string // 每个连接唯一
	Address string // 认证身份（JWT sub）
	Conn    *websocket.Conn
	Send    chan OutgoingMessage
	Hub     *Hub

	mu     sync.Mutex
	closed bool
}

const (
	writeWait      = 10 * time.Second    // 单次写超时
	pongWait       = 60 * time.Second    // 读超时
	pingPeriod     = (pongWait * 9) / 10 // 心跳发送周期
	maxMessageSize = 1024 * 4            // 最大4KB
	sendBuffer     = 32
)

func NewClient(id, address string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:      id,
		Address: address,
		Conn:    conn,
		Send:    make(chan OutgoingMessage, sendBuffer),
		Hub:     hub,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Deliver 非阻塞投递；队列满或已关闭时丢弃
func (c *Client) Deliver(msg OutgoingMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		utils.Log.Warn("send queue full, dropping", "conn", c.id, "event", msg.Event)
		return false
	}
}

// Notify 实现 relay.Participant
func (c *Client) Notify(n relay.Notification) {
	c.Deliver(OutgoingMessage{Event: n.Event, Data: n.Data})
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// 写协程
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod) // 心跳
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {

		// 有消息待发
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭Send，通知前端
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(msg); err != nil {
				return
			}

		// 定时发送 ping 维持连接健康
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// 读协程：每条消息直接交给 Handler，不经过 Hub 主循环
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregisterClient(c)
		if c.Hub.handler != nil {
			c.Hub.handler.HandleDisconnect(c)
		}
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Deliver(OutgoingMessage{Event: EventError, Data: ErrorPayload{Message: "bad json"}})
			continue
		}
		msg.From = c.id

		if c.Hub.handler != nil {
			c.Hub.handler.HandleMessage(c, msg)
		}
	}
}
