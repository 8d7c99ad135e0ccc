package bot

import (
	"math/rand"

	"SuperRPS/internal/game/card"
)

// Policy 决定 bot 本轮出哪张牌
type Policy interface {
	Choose(hand []card.Kind) (card.Kind, int)
}

// Random 从当前手牌中均匀随机选一张
type Random struct {
	rnd *rand.Rand
}

func NewRandom(rnd *rand.Rand) *Random {
	return &Random{rnd: rnd}
}

// Choose 手牌为空时返回 (Hidden, -1)
func (p *Random) Choose(hand []card.Kind) (card.Kind, int) {
	if len(hand) == 0 {
		return card.Hidden, -1
	}
	i := p.rnd.Intn(len(hand))
	return hand[i], i
}
