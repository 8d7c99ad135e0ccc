package websocket

import (
	"sync"

	"SuperRPS/internal/utils"
)

// Handler 游戏层入口（GameManager 实现）
type Handler interface {
	HandleMessage(c *Client, msg IncomingMessage)
	HandleDisconnect(c *Client)
}

type HubInterface interface {
	ClientByID(id string) (*Client, bool)
	SendToPlayer(id string, msg OutgoingMessage)
	Count() int
	Close()
}

type Hub struct {
	clients    map[string]*Client // conn id -> client
	register   chan *Client
	unregister chan *Client
	sendOne    chan sendReq
	handler    Handler
	quit       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

type sendReq struct {
	ID      string
	Message OutgoingMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sendOne:    make(chan sendReq, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetHandler 必须在 Run 之前设置
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

func (h *Hub) Run() {
	utils.Log.Info("Hub started")
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			utils.Log.Info("Hub.register", "conn", c.id, "participant", c.Address, "clients", len(h.clients))
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
				utils.Log.Info("Hub.unregister", "conn", c.id, "clients", len(h.clients))
				c.close()
			}
			h.mu.Unlock()

		case req := <-h.sendOne:
			h.mu.RLock()
			client, ok := h.clients[req.ID]
			h.mu.RUnlock()
			if ok {
				client.Deliver(req.Message)
			}

		case <-h.quit:
			h.mu.Lock()
			for id, c := range h.clients {
				c.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			utils.Log.Info("Hub stopped")
			return
		}
	}
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Send to a single connection (safe concurrent)
func (h *Hub) SendToPlayer(id string, msg OutgoingMessage) {
	select {
	case h.sendOne <- sendReq{ID: id, Message: msg}:
	case <-h.quit:
	}
}

// Lookup for a client by connection id
func (h *Hub) ClientByID(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Done Run 退出后关闭
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
