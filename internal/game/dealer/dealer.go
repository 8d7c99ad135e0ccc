package dealer

import (
	"math/rand"

	"SuperRPS/internal/game/card"
)

// Dealer 只负责组牌、洗牌与起手分牌（无规则判断）
type Dealer struct {
	rnd *rand.Rand
}

func NewDealer(seed int64) *Dealer {
	return &Dealer{rnd: rand.New(rand.NewSource(seed))}
}

// Rand 暴露随机源，供同一对局内的 bot 策略共用
func (d *Dealer) Rand() *rand.Rand {
	return d.rnd
}

// BuildDeck 按配置展开牌组，顺序固定（之后会洗牌）
func BuildDeck(c card.Composition) ([]card.Kind, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	deck := make([]card.Kind, 0, c.Total())
	for _, k := range card.All {
		for i := 0; i < c.Count(k); i++ {
			deck = append(deck, k)
		}
	}
	return deck, nil
}

// Shuffle Fisher-Yates：从最后一张往前，与 [0, i] 中随机一张交换。返回新切片。
func Shuffle[T any](rnd *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal 组牌 -> 洗牌 -> 起手：手牌取前 min(handSize, len) 张，其余留在牌堆
func (d *Dealer) Deal(c card.Composition, handSize int) (hand, deck []card.Kind, err error) {
	base, err := BuildDeck(c)
	if err != nil {
		return nil, nil, err
	}
	shuffled := Shuffle(d.rnd, base)
	n := handSize
	if n > len(shuffled) {
		n = len(shuffled)
	}
	if n < 0 {
		n = 0
	}
	hand = append([]card.Kind(nil), shuffled[:n]...)
	deck = append([]card.Kind(nil), shuffled[n:]...)
	return hand, deck, nil
}
