package engine

import (
	"fmt"

	"SuperRPS/internal/game/card"
)

// Settings 开局时读取一次，对局中不再重读
type Settings struct {
	HandSize int              `json:"handSize" mapstructure:"handSize"`
	Deck     card.Composition `json:"deck" mapstructure:"deck"`
	OpenHand bool             `json:"openHand" mapstructure:"openHand"`

	// 仅 bot 模式：对手单独的牌组配置，为空则与本方相同
	OpponentDeck *card.Composition `json:"opponentDeck,omitempty" mapstructure:"opponentDeck"`
}

// DefaultSettings 默认设置（6 张手牌，4/4/4/2/2/2）
func DefaultSettings() Settings {
	return Settings{
		HandSize: 6,
		Deck: card.Composition{
			RegularRock: 4, RegularPaper: 4, RegularScissors: 4,
			SuperRock: 2, SuperPaper: 2, SuperScissors: 2,
		},
		OpenHand: true,
	}
}

func (s Settings) normalize() Settings {
	if s.HandSize < 1 {
		s.HandSize = 1
	}
	return s
}

func (s Settings) opponentDeck() card.Composition {
	if s.OpponentDeck != nil {
		return *s.OpponentDeck
	}
	return s.Deck
}

func (s Settings) Validate() error {
	if err := s.Deck.Validate(); err != nil {
		return err
	}
	if s.OpponentDeck != nil {
		if err := s.OpponentDeck.Validate(); err != nil {
			return fmt.Errorf("opponent deck: %w", err)
		}
	}
	return nil
}
