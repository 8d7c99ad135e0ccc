package table

import (
	"errors"
	"testing"

	"SuperRPS/internal/game/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeBySlotIndex(t *testing.T) {
	s := NewSide(
		[]card.Kind{card.Rock, card.Paper, card.Rock},
		[]card.Kind{card.SuperScissors},
		3,
	)

	// 出第 3 张 Rock，应移除 index 2 而不是第一个 Rock
	require.NoError(t, s.Consume(card.Rock, 2))
	assert.Equal(t, []card.Kind{card.Rock, card.Paper, card.SuperScissors}, s.Hand)
	assert.Empty(t, s.Deck)
	assert.Equal(t, []card.Kind{card.Rock}, s.Played)
}

func TestConsumeRejectsIllegal(t *testing.T) {
	s := NewSide([]card.Kind{card.Rock}, nil, 1)

	err := s.Consume(card.Paper, 0)
	assert.True(t, errors.Is(err, ErrIllegalMove))
	err = s.Consume(card.Rock, 3)
	assert.True(t, errors.Is(err, ErrIllegalMove))
	err = s.Consume(card.Rock, -1)
	assert.True(t, errors.Is(err, ErrIllegalMove))

	// 状态不变
	assert.Equal(t, []card.Kind{card.Rock}, s.Hand)
	assert.Empty(t, s.Played)
}

// 手牌+牌堆每轮恰好减 1；手牌数在牌堆非空时不变，牌堆空时减 1
func TestRemainingAccounting(t *testing.T) {
	s := NewSide(
		[]card.Kind{card.Rock, card.Paper},
		[]card.Kind{card.Scissors, card.SuperRock},
		2,
	)
	prev, prevHand := s.Remaining(), len(s.Hand)
	for !s.Exhausted() {
		deckWasEmpty := len(s.Deck) == 0
		require.NoError(t, s.Consume(s.Hand[0], 0))
		assert.Equal(t, prev-1, s.Remaining())
		if deckWasEmpty {
			assert.Equal(t, prevHand-1, len(s.Hand))
		} else {
			assert.Equal(t, prevHand, len(s.Hand))
		}
		prev, prevHand = s.Remaining(), len(s.Hand)
	}
	assert.Len(t, s.Played, 4)
}

func TestTargetCappedByDeck(t *testing.T) {
	s := NewSide([]card.Kind{card.Rock}, nil, 8)
	assert.Equal(t, 1, s.Target)
}

func TestHiddenSide(t *testing.T) {
	s := NewHiddenSide(2, 1, 2)

	// 暗牌不校验牌面
	require.NoError(t, s.Consume(card.SuperPaper, 1))
	assert.Len(t, s.Hand, 2)
	assert.Len(t, s.Deck, 0)

	// 越界 index 也只扣张数
	require.NoError(t, s.Consume(card.Rock, 9))
	require.NoError(t, s.Consume(card.Rock, 0))
	assert.True(t, s.Exhausted())
	assert.Equal(t, []card.Kind{card.SuperPaper, card.Rock, card.Rock}, s.Played)
}
