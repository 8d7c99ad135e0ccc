package card

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind 卡牌种类（六种，值类型，同种卡牌不可区分）
type Kind int

const (
	Hidden Kind = iota // 对手暗牌占位
	Rock
	Paper
	Scissors
	SuperRock
	SuperPaper
	SuperScissors
)

// All 固定顺序，Deck Builder 按此顺序展开
var All = []Kind{Rock, Paper, Scissors, SuperRock, SuperPaper, SuperScissors}

var names = map[Kind]string{
	Hidden:        "Hidden",
	Rock:          "Rock",
	Paper:         "Paper",
	Scissors:      "Scissors",
	SuperRock:     "SuperRock",
	SuperPaper:    "SuperPaper",
	SuperScissors: "SuperScissors",
}

var ErrUnknownKind = errors.New("unknown card kind")

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid 是否为可出的六种牌之一
func (k Kind) Valid() bool {
	return k >= Rock && k <= SuperScissors
}

// Super 是否为超级牌
func (k Kind) Super() bool {
	return k >= SuperRock && k <= SuperScissors
}

// Base 返回基础形状（超级牌与普通牌共享形状）
func (k Kind) Base() Kind {
	if k.Super() {
		return k - 3
	}
	return k
}

// Parse 解析线上传输的名字，例如 "SuperPaper"
func Parse(s string) (Kind, error) {
	for _, k := range All {
		if names[k] == s {
			return k, nil
		}
	}
	return Hidden, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == names[Hidden] {
		*k = Hidden
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Counts 按种类统计（用于展示已出牌/手牌）
func Counts(cards []Kind) map[Kind]int {
	out := make(map[Kind]int, len(All))
	for _, c := range cards {
		out[c]++
	}
	return out
}
