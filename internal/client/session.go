package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"SuperRPS/internal/game/card"
	"SuperRPS/internal/game/engine"
	"SuperRPS/internal/relay"
	"SuperRPS/internal/utils"

	"github.com/gorilla/websocket"
)

var (
	ErrClosed = errors.New("session closed")
	// ErrSettingsMismatch PvP 双方必须用服务端下发的同一套牌组
	ErrSettingsMismatch = errors.New("pvp settings differ from server")
)

const writeWait = 5 * time.Second

// Event 中继推过来的事件（room-full 时 Err 为 relay.ErrRoomFull）
type Event struct {
	Name    string
	Message string
	Err     error
}

// Options Settings 为空时使用服务端 /game/settings；非空则必须与之一致
type Options struct {
	Settings    *engine.Settings
	Seed        int64
	RevealDelay time.Duration
	OnChange    func(engine.Snapshot)
}

// Session 一个 PvP 玩家：本地运行对局引擎，只通过中继交换出牌
type Session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	eng *engine.Engine

	mu     sync.Mutex
	roomID string
	connID string

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dial server 为 http(s) 基地址：先取共享设置，再连接 /ws（token 放在 Authorization 头）
func Dial(ctx context.Context, server, token string, opts Options) (*Session, error) {
	server = strings.TrimRight(server, "/")
	shared, err := FetchSettings(ctx, server)
	if err != nil {
		return nil, err
	}
	if opts.Settings != nil && !sameDeal(*opts.Settings, shared) {
		return nil, fmt.Errorf("%w: local hand %d deck %d, server hand %d deck %d", ErrSettingsMismatch,
			opts.Settings.HandSize, opts.Settings.Deck.Total(), shared.HandSize, shared.Deck.Total())
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	url := "ws" + strings.TrimPrefix(server, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	s := &Session{
		conn:   conn,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	eng, err := engine.NewEngine(engine.Options{
		Mode:        engine.ModePvP,
		Settings:    shared,
		Seed:        opts.Seed,
		RevealDelay: opts.RevealDelay,
		Mover:       s,
		OnChange:    opts.OnChange,
	})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.eng = eng

	go s.readLoop()
	return s, nil
}

// FetchSettings GET /game/settings
func FetchSettings(ctx context.Context, server string) (engine.Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/game/settings", nil)
	if err != nil {
		return engine.Settings{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return engine.Settings{}, fmt.Errorf("fetch settings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return engine.Settings{}, fmt.Errorf("fetch settings: status %d", resp.StatusCode)
	}

	var st engine.Settings
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return engine.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	// 对手牌组只对 bot 有意义
	st.OpponentDeck = nil
	return st, st.Validate()
}

// sameDeal 牌组与手牌数决定双方的牌数推算，必须一致
func sameDeal(a, b engine.Settings) bool {
	return a.HandSize == b.HandSize && a.Deck == b.Deck && a.OpponentDeck == nil
}

func (s *Session) Engine() *engine.Engine { return s.eng }

// Events 关闭表示连接已断开
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) ConnID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) send(event string, data any) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(map[string]any{"event": event, "data": data})
}

// Join 加入房间；房间已满通过 Events 返回 room-full
func (s *Session) Join(roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return errors.New("Please enter a room ID.")
	}
	s.mu.Lock()
	s.roomID = roomID
	s.mu.Unlock()
	s.eng.SetRoom(roomID)
	return s.send("join-room", roomID)
}

// SendMove 实现 engine.Mover
func (s *Session) SendMove(m engine.Move) error {
	return s.send("play-card", relayPlay{RoomID: s.RoomID(), Card: m.Card.String(), Index: m.Index})
}

type relayPlay struct {
	RoomID string `json:"roomId"`
	Card   string `json:"card"`
	Index  int    `json:"index"`
}

func (s *Session) Play(k card.Kind, index int) error {
	return s.eng.Play(k, index)
}

func (s *Session) Leave() error {
	s.mu.Lock()
	s.roomID = ""
	s.mu.Unlock()
	return s.send("leave-room", nil)
}

// Restart 离开房间、重开对局、重新加入同一房间
func (s *Session) Restart() error {
	roomID := s.RoomID()
	if err := s.Leave(); err != nil {
		return err
	}
	if err := s.eng.Restart(); err != nil {
		return err
	}
	if roomID == "" {
		return nil
	}
	return s.Join(roomID)
}

func (s *Session) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.writeMu.Unlock()

	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		utils.Log.Warn("client event dropped", "event", ev.Name)
	}
}

func (s *Session) readLoop() {
	defer func() {
		s.closeOnce.Do(func() { close(s.done) })
		close(s.events)
	}()

	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			return
		}
		s.dispatch(f)
	}
}

func (s *Session) dispatch(f frame) {
	switch f.Event {

	case "connected":
		var c struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(f.Data, &c)
		s.mu.Lock()
		s.connID = c.ID
		s.mu.Unlock()

	case relay.EventPlayerJoined:
		var p relay.PlayerJoined
		if err := json.Unmarshal(f.Data, &p); err == nil && p.Count >= relay.MaxMembers {
			s.eng.OpponentJoined()
		}

	case relay.EventRoomFull:
		var p relay.RoomFull
		_ = json.Unmarshal(f.Data, &p)
		s.mu.Lock()
		s.roomID = ""
		s.mu.Unlock()
		s.eng.SetRoom("")
		s.emit(Event{Name: f.Event, Message: p.Message, Err: relay.ErrRoomFull})
		return

	case relay.EventOpponentPlay:
		var p relay.OpponentPlay
		if err := json.Unmarshal(f.Data, &p); err != nil {
			utils.Log.Warn("bad opponent-play", "err", err)
			return
		}
		k, err := card.Parse(p.Card)
		if err != nil {
			utils.Log.Warn("bad opponent card", "card", p.Card)
			return
		}
		if err := s.eng.OpponentPlayed(k, p.Index); err != nil {
			utils.Log.Debug("opponent move ignored", "err", err)
		}

	case relay.EventOpponentDisconnected:
		s.eng.OpponentLeft()

	case "error":
		var p struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(f.Data, &p)
		s.emit(Event{Name: f.Event, Message: p.Message, Err: errors.New(p.Message)})
		return
	}

	s.emit(Event{Name: f.Event})
}
