package engine

import "SuperRPS/internal/game/card"

// Snapshot 每次状态变化后给展示层的只读视图
type Snapshot struct {
	Mode   Mode   `json:"mode"`
	Phase  Phase  `json:"phase"`
	RoomID string `json:"roomId,omitempty"`
	Frozen bool   `json:"frozen"`

	Hand              []card.Kind `json:"hand"`
	OpponentHand      []card.Kind `json:"opponentHand,omitempty"`
	OpponentHandSize  int         `json:"opponentHandSize"`
	DeckCount         int         `json:"deckCount"`
	OpponentDeckCount int         `json:"opponentDeckCount"`

	PlayerCard   *card.Kind `json:"playerCard,omitempty"`
	OpponentCard *card.Kind `json:"opponentCard,omitempty"`
	Result       string     `json:"result,omitempty"`

	Score          int         `json:"score"`
	OpponentScore  int         `json:"opponentScore"`
	Played         []card.Kind `json:"played"`
	OpponentPlayed []card.Kind `json:"opponentPlayed"`

	Seq       uint64 `json:"seq"`
	Committed *Move  `json:"committed,omitempty"`
	Winner    string `json:"winner,omitempty"` // self / opponent / draw
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() Snapshot {
	s := Snapshot{
		Seq:               e.seq,
		Mode:              e.opts.Mode,
		Phase:             e.phase,
		RoomID:            e.opts.RoomID,
		Frozen:            e.frozen,
		Hand:              e.self.HandCopy(),
		OpponentHandSize:  len(e.opp.Hand),
		DeckCount:         len(e.self.Deck),
		OpponentDeckCount: len(e.opp.Deck),
		Score:             e.self.Score,
		OpponentScore:     e.opp.Score,
		Played:            append([]card.Kind{}, e.self.Played...),
		OpponentPlayed:    append([]card.Kind{}, e.opp.Played...),
	}
	// PvP 中对手手牌永远不可见
	if e.opts.Mode == ModeBot && e.opts.Settings.OpenHand {
		s.OpponentHand = e.opp.HandCopy()
	}
	if e.last != nil {
		self, opp := e.last.Self, e.last.Opponent
		s.PlayerCard, s.OpponentCard = &self, &opp
		s.Result = e.last.Result.Text()
	}
	if e.committed != nil {
		c := *e.committed
		s.Committed = &c
	}
	if e.phase == Terminal {
		switch {
		case e.self.Score > e.opp.Score:
			s.Winner = "self"
		case e.self.Score < e.opp.Score:
			s.Winner = "opponent"
		default:
			s.Winner = "draw"
		}
	}
	return s
}
