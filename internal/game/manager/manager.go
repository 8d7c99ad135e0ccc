package manager

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"SuperRPS/internal/game/card"
	"SuperRPS/internal/game/engine"
	"SuperRPS/internal/relay"
	"SuperRPS/internal/utils"
	"SuperRPS/internal/websocket"
)

// 客户端 -> 服务端事件
const (
	EventJoinRoom   = "join-room"
	EventPlayCard   = "play-card"
	EventLeaveRoom  = "leave-room"
	EventBotStart   = "bot-start"
	EventBotPlay    = "bot-play"
	EventBotRestart = "bot-restart"
	EventBotState   = "bot-state"

	// 服务端 -> 客户端
	EventState = "state"
)

// PlayCard PvP 出牌；RoomID 为空时使用当前所在房间
type PlayCard struct {
	RoomID string `json:"roomId"`
	Card   string `json:"card"`
	Index  int    `json:"index"`
}

type BotStart struct {
	Settings *engine.Settings `json:"settings,omitempty"`
}

type BotPlay struct {
	Card  card.Kind `json:"card"`
	Index int       `json:"index"`
}

// GameManager 管理所有连接的游戏入口：PvP 只做中继，bot 对局在服务端运行
type GameManager struct {
	mu      sync.RWMutex
	engines map[string]*engine.Engine // conn id -> bot engine
	hub     websocket.HubInterface
	relay   *relay.Registry

	defaults    engine.Settings
	revealDelay time.Duration
}

func NewGameManager(hub websocket.HubInterface, reg *relay.Registry, defaults engine.Settings, revealDelay time.Duration) *GameManager {
	return &GameManager{
		engines:     make(map[string]*engine.Engine),
		hub:         hub,
		relay:       reg,
		defaults:    defaults,
		revealDelay: revealDelay,
	}
}

// HandleMessage 统一入口（来自每个连接的读协程）
func (m *GameManager) HandleMessage(c *websocket.Client, msg websocket.IncomingMessage) {
	switch msg.Event {

	case EventJoinRoom:
		roomID, err := parseRoomID(msg.Data)
		if err != nil {
			m.sendError(c, err.Error())
			return
		}
		if err := m.relay.Join(roomID, c); err != nil && !errors.Is(err, relay.ErrRoomFull) {
			m.sendError(c, err.Error())
		}

	case EventPlayCard:
		var p PlayCard
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			m.sendError(c, "bad play-card payload")
			return
		}
		roomID := p.RoomID
		if roomID == "" {
			roomID, _ = m.relay.RoomOf(c.ID())
		}
		m.relay.RelayMove(roomID, c, p.Card, p.Index)

	case EventLeaveRoom:
		m.relay.Disconnect(c)

	case EventBotStart:
		var req BotStart
		if len(msg.Data) > 0 && string(msg.Data) != "null" {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				m.sendError(c, "bad bot-start payload")
				return
			}
		}
		m.startBot(c, req)

	case EventBotPlay:
		eng := m.engine(c.ID())
		if eng == nil {
			m.sendError(c, "no bot match")
			return
		}
		var p BotPlay
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			m.sendError(c, "bad bot-play payload")
			return
		}
		// 非法出牌是 no-op，不回错误
		if err := eng.Play(p.Card, p.Index); err != nil {
			utils.Log.Debug("bot play rejected", "conn", c.ID(), "err", err)
		}

	case EventBotRestart:
		eng := m.engine(c.ID())
		if eng == nil {
			m.sendError(c, "no bot match")
			return
		}
		if err := eng.Restart(); err != nil {
			m.sendError(c, err.Error())
		}

	case EventBotState:
		if eng := m.engine(c.ID()); eng != nil {
			m.push(c.ID(), eng.Snapshot())
		}

	default:
		m.sendError(c, "unknown event: "+msg.Event)
	}
}

// HandleDisconnect 连接断开：离开房间并丢弃 bot 对局
func (m *GameManager) HandleDisconnect(c *websocket.Client) {
	m.relay.Disconnect(c)

	m.mu.Lock()
	delete(m.engines, c.ID())
	m.mu.Unlock()
}

func (m *GameManager) startBot(c *websocket.Client, req BotStart) {
	settings := m.defaults
	if req.Settings != nil {
		settings = *req.Settings
	}
	id := c.ID()
	eng, err := engine.NewEngine(engine.Options{
		Mode:        engine.ModeBot,
		Settings:    settings,
		RevealDelay: m.revealDelay,
		OnChange:    func(s engine.Snapshot) { m.push(id, s) },
	})
	if err != nil {
		// 空牌组：开局前就告诉用户
		m.sendError(c, err.Error())
		return
	}

	m.mu.Lock()
	m.engines[id] = eng
	m.mu.Unlock()

	utils.Log.Info("bot match started", "conn", id, "handSize", settings.HandSize)
	m.push(id, eng.Snapshot())
}

func (m *GameManager) engine(id string) *engine.Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engines[id]
}

// Matches 当前进行中的 bot 对局数
func (m *GameManager) Matches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

func (m *GameManager) push(id string, s engine.Snapshot) {
	m.hub.SendToPlayer(id, websocket.OutgoingMessage{Event: EventState, Data: s})
}

func (m *GameManager) sendError(c *websocket.Client, text string) {
	c.Deliver(websocket.OutgoingMessage{Event: websocket.EventError, Data: websocket.ErrorPayload{Message: text}})
}

// parseRoomID 接受 "room" 或 {"roomId":"room"}；房间号大小写敏感，只去掉首尾空白
func parseRoomID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		var obj struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", errors.New("bad join-room payload")
		}
		id = obj.RoomID
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("Please enter a room ID.")
	}
	return id, nil
}
