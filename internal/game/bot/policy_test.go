package bot

import (
	"math/rand"
	"testing"

	"SuperRPS/internal/game/card"
	"github.com/stretchr/testify/assert"
)

func TestRandomChoosesFromHand(t *testing.T) {
	p := NewRandom(rand.New(rand.NewSource(3)))
	hand := []card.Kind{card.Rock, card.SuperPaper, card.Scissors}
	hits := make(map[int]int)
	for i := 0; i < 3000; i++ {
		k, idx := p.Choose(hand)
		assert.Equal(t, hand[idx], k)
		hits[idx]++
	}
	// 每个槽位都应被选中
	assert.Len(t, hits, 3)
	for _, n := range hits {
		assert.Greater(t, n, 800)
	}
}

func TestRandomEmptyHand(t *testing.T) {
	p := NewRandom(rand.New(rand.NewSource(1)))
	k, idx := p.Choose(nil)
	assert.Equal(t, card.Hidden, k)
	assert.Equal(t, -1, idx)
}
