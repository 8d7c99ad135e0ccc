package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SuperRPS/internal/utils"
)

const MaxMembers = 2

var ErrRoomFull = errors.New("room is full")

type room struct {
	mu      sync.Mutex
	id      string
	members []Participant
	closed  bool // 已空并从注册表移除，持有旧指针者需重取
}

func (r *room) indexOf(id string) int {
	for i, m := range r.members {
		if m.ID() == id {
			return i
		}
	}
	return -1
}

// Registry 房间注册表：进程内一份，在 main 中创建后注入各连接处理器。
// mu 只保护 rooms / where 两个映射；成员变更与转发由各房间自己的锁串行化。
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*room
	where map[string]string // participant -> roomID

	store        Store
	storeTimeout time.Duration

	// 镜像写入按入队顺序由单个协程执行，房间锁内只入队不做 I/O
	mirror    chan mirrorOp
	quit      chan struct{}
	closeOnce sync.Once
}

type mirrorOp struct {
	add         bool
	roomID      string
	participant string
	done        chan struct{} // 非空时仅作屏障
}

const mirrorQueue = 256

func NewRegistry(store Store) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	g := &Registry{
		rooms:        make(map[string]*room),
		where:        make(map[string]string),
		store:        store,
		storeTimeout: 2 * time.Second,
		mirror:       make(chan mirrorOp, mirrorQueue),
		quit:         make(chan struct{}),
	}
	go g.runMirror()
	return g
}

// Close 停止镜像协程，已入队的写入会先执行完
func (g *Registry) Close() {
	g.closeOnce.Do(func() { close(g.quit) })
}

func (g *Registry) Store() Store {
	return g.store
}

func (g *Registry) acquire(roomID string) *room {
	for {
		g.mu.Lock()
		r, ok := g.rooms[roomID]
		if !ok {
			r = &room{id: roomID}
			g.rooms[roomID] = r
		}
		g.mu.Unlock()

		r.mu.Lock()
		if !r.closed {
			return r
		}
		r.mu.Unlock()
	}
}

func (g *Registry) lookup(roomID string) *room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[roomID]
}

// Join 加入房间。已满则通知被拒者并返回 ErrRoomFull，房间不受影响；
// 第二人加入时通知双方可以开始。
func (g *Registry) Join(roomID string, p Participant) error {
	if prev, ok := g.RoomOf(p.ID()); ok && prev != roomID {
		g.Leave(prev, p)
	}

	r := g.acquire(roomID)
	defer r.mu.Unlock()

	if r.indexOf(p.ID()) >= 0 {
		return nil
	}
	if len(r.members) >= MaxMembers {
		utils.Log.Warn("room full", "room", roomID, "participant", p.ID())
		p.Notify(Notification{Event: EventRoomFull, Data: RoomFull{
			Message: fmt.Sprintf("Room %s is full. Please join another room.", roomID),
		}})
		g.release(r)
		return fmt.Errorf("%w: %s", ErrRoomFull, roomID)
	}

	r.members = append(r.members, p)
	g.mu.Lock()
	g.where[p.ID()] = roomID
	g.mu.Unlock()
	g.enqueue(mirrorOp{add: true, roomID: roomID, participant: p.ID()})
	utils.Log.Info("joined room", "room", roomID, "participant", p.ID(), "count", len(r.members))

	if len(r.members) == MaxMembers {
		n := Notification{Event: EventPlayerJoined, Data: PlayerJoined{Count: len(r.members)}}
		for _, m := range r.members {
			m.Notify(n)
		}
	}
	return nil
}

// RelayMove 原样转发给房间另一人；不足两人或发送者不在房间时静默丢弃
func (g *Registry) RelayMove(roomID string, p Participant, cardName string, index int) bool {
	r := g.lookup(roomID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) < MaxMembers || r.indexOf(p.ID()) < 0 {
		utils.Log.Debug("move dropped", "room", roomID, "participant", p.ID())
		return false
	}
	for _, m := range r.members {
		if m.ID() != p.ID() {
			m.Notify(Notification{Event: EventOpponentPlay, Data: OpponentPlay{Card: cardName, Index: index}})
		}
	}
	return true
}

// Leave 离开房间并通知留下的一方对手已断开
func (g *Registry) Leave(roomID string, p Participant) {
	r := g.lookup(roomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID())
	if i < 0 {
		return
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	g.mu.Lock()
	if g.where[p.ID()] == roomID {
		delete(g.where, p.ID())
	}
	g.mu.Unlock()
	g.enqueue(mirrorOp{roomID: roomID, participant: p.ID()})
	utils.Log.Info("left room", "room", roomID, "participant", p.ID(), "count", len(r.members))

	for _, m := range r.members {
		m.Notify(Notification{Event: EventOpponentDisconnected, Data: OpponentDisconnected{}})
	}
	g.release(r)
}

// Disconnect 连接断开：离开其所在房间（若有）
func (g *Registry) Disconnect(p Participant) {
	if roomID, ok := g.RoomOf(p.ID()); ok {
		g.Leave(roomID, p)
	}
}

// release 空房间从注册表移除（需持有 r.mu）
func (g *Registry) release(r *room) {
	if len(r.members) > 0 {
		return
	}
	r.closed = true
	g.mu.Lock()
	if g.rooms[r.id] == r {
		delete(g.rooms, r.id)
	}
	g.mu.Unlock()
}

func (g *Registry) RoomOf(participant string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.where[participant]
	return id, ok
}

// Count 房间当前人数（进程内）
func (g *Registry) Count(roomID string) int {
	r := g.lookup(roomID)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// enqueue 不阻塞；队列满时丢弃并记录，靠 Redis TTL 兜底
func (g *Registry) enqueue(op mirrorOp) {
	select {
	case g.mirror <- op:
	default:
		utils.Log.Error("store mirror queue full, dropped", "room", op.roomID, "participant", op.participant)
	}
}

func (g *Registry) runMirror() {
	for {
		select {
		case op := <-g.mirror:
			g.apply(op)
		case <-g.quit:
			for {
				select {
				case op := <-g.mirror:
					g.apply(op)
				default:
					return
				}
			}
		}
	}
}

func (g *Registry) apply(op mirrorOp) {
	if op.done != nil {
		close(op.done)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.storeTimeout)
	defer cancel()

	var err error
	if op.add {
		err = g.store.Add(ctx, op.roomID, op.participant)
	} else {
		err = g.store.Remove(ctx, op.roomID, op.participant)
	}
	if err != nil {
		utils.Log.Error("store mirror failed", "room", op.roomID, "add", op.add, "err", err)
	}
}

// Flush 等待此前入队的镜像写入完成
func (g *Registry) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case g.mirror <- mirrorOp{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
