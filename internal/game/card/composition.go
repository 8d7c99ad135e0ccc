package card

import (
	"errors"
	"fmt"
)

var ErrInvalidComposition = errors.New("invalid deck composition")

// Composition 每种牌的张数，来自外部设置
type Composition struct {
	RegularRock     int `json:"regularRock" mapstructure:"regularRock"`
	RegularPaper    int `json:"regularPaper" mapstructure:"regularPaper"`
	RegularScissors int `json:"regularScissors" mapstructure:"regularScissors"`
	SuperRock       int `json:"superRock" mapstructure:"superRock"`
	SuperPaper      int `json:"superPaper" mapstructure:"superPaper"`
	SuperScissors   int `json:"superScissors" mapstructure:"superScissors"`
}

// Count 返回某种牌的配置张数
func (c Composition) Count(k Kind) int {
	switch k {
	case Rock:
		return c.RegularRock
	case Paper:
		return c.RegularPaper
	case Scissors:
		return c.RegularScissors
	case SuperRock:
		return c.SuperRock
	case SuperPaper:
		return c.SuperPaper
	case SuperScissors:
		return c.SuperScissors
	}
	return 0
}

func (c Composition) Total() int {
	n := 0
	for _, k := range All {
		n += c.Count(k)
	}
	return n
}

// Validate 空牌组或负数张数都不能开局
func (c Composition) Validate() error {
	for _, k := range All {
		if c.Count(k) < 0 {
			return fmt.Errorf("%w: %s count %d", ErrInvalidComposition, k, c.Count(k))
		}
	}
	if c.Total() == 0 {
		return fmt.Errorf("%w: deck is empty", ErrInvalidComposition)
	}
	return nil
}
