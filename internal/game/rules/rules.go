package rules

import "SuperRPS/internal/game/card"

type Outcome int

const (
	Tie Outcome = iota
	AWins
	BWins
)

type Reason int

const (
	Plain Reason = iota
	SuperBonus
)

func (o Outcome) String() string {
	switch o {
	case AWins:
		return "AWins"
	case BWins:
		return "BWins"
	}
	return "Tie"
}

func (r Reason) String() string {
	if r == SuperBonus {
		return "SuperBonus"
	}
	return "Plain"
}

// beats 基础形状克制关系：键胜值
var beats = map[card.Kind]card.Kind{
	card.Rock:     card.Scissors,
	card.Scissors: card.Paper,
	card.Paper:    card.Rock,
}

// Result 一轮结算结果；DeltaA/DeltaB 为双方得分增量
type Result struct {
	Outcome Outcome
	Reason  Reason
	DeltaA  int
	DeltaB  int
}

// Resolve 按顺序判定，先命中者生效：
//  1. 同种牌 -> 平
//  2. 同形状不同种 -> 超级牌胜（SuperBonus）
//  3. 不同形状 -> 按基础形状循环克制（Plain），与是否超级无关
func Resolve(a, b card.Kind) Result {
	if a == b {
		return Result{Outcome: Tie}
	}
	if a.Base() == b.Base() {
		if a.Super() {
			return Result{Outcome: AWins, Reason: SuperBonus, DeltaA: 1}
		}
		return Result{Outcome: BWins, Reason: SuperBonus, DeltaB: 1}
	}
	if beats[a.Base()] == b.Base() {
		return Result{Outcome: AWins, Reason: Plain, DeltaA: 1}
	}
	return Result{Outcome: BWins, Reason: Plain, DeltaB: 1}
}

// Text 以 A（本方）视角的结果文案
func (r Result) Text() string {
	var s string
	switch r.Outcome {
	case Tie:
		return "Tie!"
	case AWins:
		s = "You Win!"
	case BWins:
		s = "Opponent Wins!"
	}
	if r.Reason == SuperBonus {
		s += " (Super card bonus)"
	}
	return s
}
