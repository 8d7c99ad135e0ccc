package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"SuperRPS/internal/game/bot"
	"SuperRPS/internal/game/card"
	"SuperRPS/internal/game/dealer"
	"SuperRPS/internal/game/rules"
	"SuperRPS/internal/game/table"
)

var (
	ErrIllegalMove          = table.ErrIllegalMove
	ErrOpponentDisconnected = errors.New("opponent disconnected")
	// ErrDesync 对手的出牌与本地推算的对手牌数对不上（双方牌组配置不一致）
	ErrDesync = errors.New("opponent out of sync")
)

// ---------------------
//     MODE & PHASE
// ---------------------

type Mode string

const (
	ModeBot Mode = "bot"
	ModePvP Mode = "pvp"
)

type Phase string

const (
	AwaitingOpponent Phase = "awaiting_opponent" // 仅 PvP
	AwaitingStart    Phase = "awaiting_start"
	RoundInProgress  Phase = "round_in_progress"
	RoundRevealing   Phase = "round_revealing"
	Terminal         Phase = "terminal"
)

// Move 一次出牌：牌面 + 手牌槽位
type Move struct {
	Card  card.Kind `json:"card"`
	Index int       `json:"index"`
}

// Mover PvP 出站：把本方已提交的出牌交给中继
type Mover interface {
	SendMove(m Move) error
}

// Round 一轮的记录，结算后并入出牌历史
type Round struct {
	Self     card.Kind
	Opponent card.Kind
	Result   rules.Result
}

type Options struct {
	Mode        Mode
	Settings    Settings
	Seed        int64
	RevealDelay time.Duration
	RoomID      string
	Policy      bot.Policy // 为空时使用随机策略
	Mover       Mover      // PvP 必填
	OnChange    func(Snapshot)
}

// ---------------------
//       ENGINE
// ---------------------

type Engine struct {
	mu sync.Mutex

	opts   Options
	dealer *dealer.Dealer
	policy bot.Policy

	phase  Phase
	self   *table.Side
	opp    *table.Side
	last   *Round
	frozen bool
	cause  error // 冻结原因：对手断线或不同步

	// PvP：已提交未结算的出牌，与手牌分开保存，结算时才合并
	committed *Move
	incoming  *Move
	sending   bool // committed 正在发往中继，发送成功前不结算

	gen   int
	timer *time.Timer

	// 快照序号；notifyMu 保证推送按序号单调，过期快照直接丢弃
	seq      uint64
	notifyMu sync.Mutex
	notified uint64
}

// NewEngine 校验设置并完成起手；空牌组在进入状态机之前就报错
func NewEngine(opts Options) (*Engine, error) {
	if opts.Mode == "" {
		opts.Mode = ModeBot
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	opts.Settings = opts.Settings.normalize()
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Mode == ModePvP {
		if opts.Mover == nil {
			return nil, fmt.Errorf("pvp engine requires a mover")
		}
		// 对手牌面不可见，只能按双方共用的牌组推算，不允许单独配置
		if opts.Settings.OpponentDeck != nil {
			return nil, fmt.Errorf("%w: pvp uses one shared deck", card.ErrInvalidComposition)
		}
	}

	e := &Engine{
		opts:   opts,
		dealer: dealer.NewDealer(opts.Seed),
		policy: opts.Policy,
	}
	if e.policy == nil {
		e.policy = bot.NewRandom(e.dealer.Rand())
	}
	if err := e.reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// reset 组牌 -> 洗牌 -> 起手，重建全部状态（需持有锁或在构造中调用）
func (e *Engine) reset() error {
	s := e.opts.Settings
	hand, deck, err := e.dealer.Deal(s.Deck, s.HandSize)
	if err != nil {
		return err
	}
	self := table.NewSide(hand, deck, s.HandSize)

	var opp *table.Side
	oppComp := s.opponentDeck()
	if e.opts.Mode == ModePvP {
		// 对手牌面不可见，只按配置推算张数
		total := oppComp.Total()
		n := min(s.HandSize, total)
		opp = table.NewHiddenSide(n, total-n, s.HandSize)
	} else {
		oh, od, err := e.dealer.Deal(oppComp, s.HandSize)
		if err != nil {
			return err
		}
		opp = table.NewSide(oh, od, s.HandSize)
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.self, e.opp = self, opp
	e.last = nil
	e.frozen, e.cause = false, nil
	e.committed, e.incoming = nil, nil
	e.sending = false
	e.phase = AwaitingStart
	if e.opts.Mode == ModePvP {
		e.phase = AwaitingOpponent
	}
	return nil
}

// Play 本方出手牌第 index 张。非法出牌不改变任何状态。
// PvP 下先提交再发送；发送失败则撤回提交，本轮保持未出牌。
func (e *Engine) Play(k card.Kind, index int) error {
	e.mu.Lock()
	mv, err := e.play(k, index)
	if err != nil || e.opts.Mode == ModeBot {
		snap := e.capture()
		e.mu.Unlock()
		if err != nil {
			return err
		}
		e.notify(snap)
		return nil
	}
	prev, gen := e.phase, e.gen
	e.phase = RoundInProgress
	e.sending = true
	e.mu.Unlock()

	sendErr := e.opts.Mover.SendMove(mv)

	e.mu.Lock()
	current := gen == e.gen && e.committed != nil && *e.committed == mv
	if gen == e.gen {
		e.sending = false
	}
	if sendErr != nil {
		if current {
			e.committed = nil
			if e.incoming == nil {
				e.phase = prev
			}
		}
		snap := e.capture()
		e.mu.Unlock()
		e.notify(snap)
		return fmt.Errorf("send move: %w", sendErr)
	}
	if current && e.incoming != nil && e.phase == RoundInProgress {
		err = e.resolve(*e.committed, *e.incoming)
	}
	snap := e.capture()
	e.mu.Unlock()

	e.notify(snap)
	return err
}

// play 校验并落子：bot 模式直接结算，PvP 只记录为已提交
func (e *Engine) play(k card.Kind, index int) (Move, error) {
	switch {
	case e.frozen:
		return Move{}, fmt.Errorf("%w: %w", ErrIllegalMove, e.cause)
	case e.phase == Terminal, e.phase == RoundRevealing, e.phase == AwaitingOpponent:
		return Move{}, fmt.Errorf("%w: phase %s", ErrIllegalMove, e.phase)
	case e.committed != nil:
		return Move{}, fmt.Errorf("%w: move already committed", ErrIllegalMove)
	}
	if err := e.self.CanPlay(k, index); err != nil {
		return Move{}, err
	}
	mv := Move{Card: k, Index: index}

	if e.opts.Mode == ModeBot {
		bk, bi := e.policy.Choose(e.opp.Hand)
		if err := e.opp.CanPlay(bk, bi); err != nil {
			return Move{}, fmt.Errorf("bot policy: %w", err)
		}
		e.phase = RoundInProgress
		return mv, e.resolve(mv, Move{Card: bk, Index: bi})
	}

	e.committed = &mv
	return mv, nil
}

// OpponentPlayed PvP：中继转发来的对手出牌。对手先出时先暂存，等本方出牌再结算。
func (e *Engine) OpponentPlayed(k card.Kind, index int) error {
	e.mu.Lock()
	err := e.opponentPlayed(k, index)
	snap := e.capture()
	e.mu.Unlock()

	// 不同步会冻结对局，需要推送；其余错误不改变状态
	if err != nil && !errors.Is(err, ErrDesync) {
		return err
	}
	e.notify(snap)
	return err
}

func (e *Engine) opponentPlayed(k card.Kind, index int) error {
	switch {
	case e.opts.Mode != ModePvP:
		return fmt.Errorf("%w: opponent moves are local in bot mode", ErrIllegalMove)
	case e.frozen:
		return fmt.Errorf("%w: %w", ErrIllegalMove, e.cause)
	case e.phase == Terminal:
		return fmt.Errorf("%w: match is over", ErrIllegalMove)
	case !k.Valid():
		return fmt.Errorf("%w: opponent played %s", ErrIllegalMove, k)
	case e.incoming != nil:
		// 重复转发，忽略
		return fmt.Errorf("%w: opponent move already pending", ErrIllegalMove)
	}
	if len(e.opp.Hand) == 0 {
		return e.desync(fmt.Errorf("opponent played %s with no cards left", k))
	}
	mv := Move{Card: k, Index: index}
	e.incoming = &mv
	if e.phase == AwaitingStart || e.phase == AwaitingOpponent {
		e.phase = RoundInProgress
	}
	if e.committed != nil && !e.sending && e.phase == RoundInProgress {
		return e.resolve(*e.committed, *e.incoming)
	}
	return nil
}

// desync 对手已无牌可出却仍在出牌：冻结对局，只能重开
func (e *Engine) desync(cause error) error {
	e.frozen, e.cause = true, ErrDesync
	e.committed, e.incoming = nil, nil
	return fmt.Errorf("%w: %w", ErrDesync, cause)
}

// resolve 双方出牌已知：结算、扣牌补牌、计分，进入揭晓阶段
func (e *Engine) resolve(mine, theirs Move) error {
	res := rules.Resolve(mine.Card, theirs.Card)

	if err := e.self.Consume(mine.Card, mine.Index); err != nil {
		return e.desync(err)
	}
	if err := e.opp.Consume(theirs.Card, theirs.Index); err != nil {
		return e.desync(err)
	}
	e.self.Score += res.DeltaA
	e.opp.Score += res.DeltaB

	e.last = &Round{Self: mine.Card, Opponent: theirs.Card, Result: res}
	e.committed, e.incoming = nil, nil
	e.phase = RoundRevealing
	e.gen++

	if e.opts.RevealDelay <= 0 {
		e.finishReveal()
		return nil
	}
	gen := e.gen
	e.timer = time.AfterFunc(e.opts.RevealDelay, func() { e.endReveal(gen) })
	return nil
}

func (e *Engine) endReveal(gen int) {
	e.mu.Lock()
	if gen != e.gen || e.phase != RoundRevealing {
		e.mu.Unlock()
		return
	}
	e.finishReveal()
	snap := e.capture()
	e.mu.Unlock()
	e.notify(snap)
}

// finishReveal 任一方手牌与牌堆都空即结束
func (e *Engine) finishReveal() {
	e.timer = nil
	if e.self.Exhausted() || e.opp.Exhausted() {
		e.phase = Terminal
		return
	}
	e.phase = RoundInProgress
}

// OpponentJoined PvP：收到 player-joined{count:2}，可以开始。冻结的对局需先重开。
func (e *Engine) OpponentJoined() {
	e.mu.Lock()
	if e.phase == AwaitingOpponent && !e.frozen {
		e.phase = AwaitingStart
	}
	snap := e.capture()
	e.mu.Unlock()
	e.notify(snap)
}

// OpponentLeft PvP：对手断线。尚未出过牌时回到等待对手，否则冻结直到重开。
func (e *Engine) OpponentLeft() {
	e.mu.Lock()
	if e.fresh() {
		e.phase = AwaitingOpponent
	} else if !e.frozen {
		e.frozen, e.cause = true, ErrOpponentDisconnected
	}
	e.committed, e.incoming = nil, nil
	snap := e.capture()
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Engine) fresh() bool {
	switch e.phase {
	case AwaitingOpponent:
		return true
	case AwaitingStart:
		return e.committed == nil && e.incoming == nil && len(e.self.Played) == 0
	}
	return false
}

// Restart 任意时刻可强制重开，原子地重建全部状态
func (e *Engine) Restart() error {
	e.mu.Lock()
	err := e.reset()
	snap := e.capture()
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.notify(snap)
	return nil
}

// SetRoom 记录 PvP 房间号（仅用于快照）
func (e *Engine) SetRoom(roomID string) {
	e.mu.Lock()
	e.opts.RoomID = roomID
	e.mu.Unlock()
}

func (e *Engine) Mode() Mode {
	return e.opts.Mode
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// capture 取快照并分配序号（需持有 mu）
func (e *Engine) capture() Snapshot {
	e.seq++
	return e.snapshot()
}

// notify 在 mu 之外推送；序号不大于已推送的快照说明已过期，丢弃。
// OnChange 不得回调 Engine 的写操作。
func (e *Engine) notify(s Snapshot) {
	if e.opts.OnChange == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if s.Seq <= e.notified {
		return
	}
	e.notified = s.Seq
	e.opts.OnChange(s)
}
