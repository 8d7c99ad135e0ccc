package table

import (
	"errors"
	"fmt"

	"SuperRPS/internal/game/card"
)

var ErrIllegalMove = errors.New("illegal move")

// Side 一方的牌局状态：手牌、牌堆、已出牌、分数
type Side struct {
	Hand   []card.Kind
	Deck   []card.Kind
	Played []card.Kind
	Score  int

	// 起手时确定的目标手牌数 = min(handSize, 整副牌张数)
	Target int
	// 对手暗牌（PvP）：只记张数，不校验牌面
	Hidden bool
}

func NewSide(hand, deck []card.Kind, handSize int) *Side {
	target := handSize
	if total := len(hand) + len(deck); target > total {
		target = total
	}
	return &Side{Hand: hand, Deck: deck, Target: target}
}

// NewHiddenSide 只知道张数的对手，牌面用 card.Hidden 占位
func NewHiddenSide(handLen, deckLen, handSize int) *Side {
	s := NewSide(make([]card.Kind, handLen), make([]card.Kind, deckLen), handSize)
	s.Hidden = true
	return s
}

// CanPlay 手牌第 index 张是否为 kind
func (s *Side) CanPlay(k card.Kind, index int) error {
	if index < 0 || index >= len(s.Hand) {
		return fmt.Errorf("%w: hand index %d out of range (hand %d)", ErrIllegalMove, index, len(s.Hand))
	}
	if s.Hidden {
		return nil
	}
	if s.Hand[index] != k {
		return fmt.Errorf("%w: slot %d holds %s, not %s", ErrIllegalMove, index, s.Hand[index], k)
	}
	return nil
}

// Consume 按槽位移除打出的牌（绝不按值匹配），再尝试从牌堆顶补一张
func (s *Side) Consume(k card.Kind, index int) error {
	if s.Hidden && (index < 0 || index >= len(s.Hand)) && len(s.Hand) > 0 {
		// 暗牌只关心张数
		index = len(s.Hand) - 1
	}
	if err := s.CanPlay(k, index); err != nil {
		return err
	}
	s.Hand = append(s.Hand[:index:index], s.Hand[index+1:]...)
	s.Played = append(s.Played, k)
	s.replenish()
	return nil
}

func (s *Side) replenish() {
	if len(s.Hand) < s.Target && len(s.Deck) > 0 {
		s.Hand = append(s.Hand, s.Deck[0])
		s.Deck = s.Deck[1:]
	}
}

// Exhausted 手牌与牌堆都空：该方再无合法出牌
func (s *Side) Exhausted() bool {
	return len(s.Hand) == 0 && len(s.Deck) == 0
}

// Remaining 手牌 + 牌堆总张数（每轮只减不增）
func (s *Side) Remaining() int {
	return len(s.Hand) + len(s.Deck)
}

// HandCopy 对外快照用
func (s *Side) HandCopy() []card.Kind {
	return append([]card.Kind(nil), s.Hand...)
}
