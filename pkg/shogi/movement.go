package shogi

import "strings"

// Movement is a set of independent movement capabilities. A piece kind is
// fully described by the capabilities it enables.
type Movement uint16

const (
	StepBackward Movement = 1 << iota
	StepForward
	SlideForward
	SlideDiagonal
	StepForwardDiagonal
	StepBackwardDiagonal
	SlideOrthogonal
	StepSideways
	JumpForward
)

func (m Movement) Has(c Movement) bool {
	return m&c == c
}

func (m Movement) String() string {
	var names []string
	for _, rule := range movementRules {
		if m.Has(rule.capability) {
			names = append(names, rule.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

type movementRule struct {
	capability Movement
	name       string
	legal      func(owner Player, from, to Coordinate) bool
	generate   func(owner Player, from Coordinate, out []Coordinate) []Coordinate
}

// movementRules is ordered by the enumeration contract: destinations are
// listed rule by rule in this order.
var movementRules = []movementRule{
	{capability: StepForward, name: "step-forward", legal: hasMovedForwards, generate: addForwardMovements},
	{capability: JumpForward, name: "jump-forward", legal: hasJumpedForwards, generate: addJumpMovements},
	{capability: StepForwardDiagonal, name: "step-forward-diagonal", legal: hasMovedForwardsDiagonally, generate: addForwardDiagonalMovements},
	{capability: SlideForward, name: "slide-forward", legal: hasMovedForwardInRange, generate: addRangeForwardMovements},
	{capability: SlideDiagonal, name: "slide-diagonal", legal: hasMovedDiagonallyInRange, generate: addRangeDiagonalMovements},
	{capability: SlideOrthogonal, name: "slide-orthogonal", legal: hasMovedOrthogonallyInRange, generate: addRangeOrthogonalMovements},
	{capability: StepSideways, name: "step-sideways", legal: hasMovedSideways, generate: addSidewaysMovements},
	{capability: StepBackward, name: "step-backward", legal: hasMovedBack, generate: addBackMovements},
	{capability: StepBackwardDiagonal, name: "step-backward-diagonal", legal: hasMovedBackwardsDiagonally, generate: addBackwardDiagonalMovements},
}

// Legal reports whether a piece owned by owner standing on from may move to
// to under the given capabilities. Board occupancy is not consulted and
// sliding moves are never blocked.
func Legal(m Movement, owner Player, from, to Coordinate) bool {
	if !to.Valid() || from == to {
		return false
	}
	for _, rule := range movementRules {
		if m.Has(rule.capability) && rule.legal(owner, from, to) {
			return true
		}
	}
	return false
}

// Destinations enumerates every on-board square Legal accepts, in rule order.
func Destinations(m Movement, owner Player, from Coordinate) []Coordinate {
	var out []Coordinate
	for _, rule := range movementRules {
		if m.Has(rule.capability) {
			out = rule.generate(owner, from, out)
		}
	}
	return dedupe(out)
}

func dedupe(moves []Coordinate) []Coordinate {
	seen := make(map[Coordinate]struct{}, len(moves))
	out := moves[:0]
	for _, c := range moves {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func appendIfValid(out []Coordinate, c Coordinate) []Coordinate {
	if c.Valid() {
		return append(out, c)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func hasMovedBack(owner Player, from, to Coordinate) bool {
	return from.File == to.File && to.Rank == from.Rank-owner.forward()
}

func hasMovedForwards(owner Player, from, to Coordinate) bool {
	return from.File == to.File && to.Rank == from.Rank+owner.forward()
}

func hasMovedForwardInRange(owner Player, from, to Coordinate) bool {
	if from.File != to.File {
		return false
	}
	return (to.Rank-from.Rank)*owner.forward() > 0
}

func hasMovedForwardsDiagonally(owner Player, from, to Coordinate) bool {
	return absInt(to.File-from.File) == 1 && to.Rank == from.Rank+owner.forward()
}

func hasMovedBackwardsDiagonally(owner Player, from, to Coordinate) bool {
	return absInt(to.File-from.File) == 1 && to.Rank == from.Rank-owner.forward()
}

func hasMovedDiagonallyInRange(_ Player, from, to Coordinate) bool {
	return absInt(to.File-from.File) == absInt(to.Rank-from.Rank)
}

func hasMovedOrthogonallyInRange(_ Player, from, to Coordinate) bool {
	return from.File == to.File || from.Rank == to.Rank
}

func hasMovedSideways(_ Player, from, to Coordinate) bool {
	return from.Rank == to.Rank && absInt(to.File-from.File) == 1
}

func hasJumpedForwards(owner Player, from, to Coordinate) bool {
	return absInt(to.File-from.File) == 1 && to.Rank == from.Rank+2*owner.forward()
}

func addForwardMovements(owner Player, from Coordinate, out []Coordinate) []Coordinate {
	return appendIfValid(out, from.offset(0, owner.forward()))
}

func addBackMovements(owner Player, from Coordinate, out []Coordinate) []Coordinate {
	return appendIfValid(out, from.offset(0, -owner.forward()))
}

func addJumpMovements(owner Player, from Coordinate, out []Coordinate) []Coordinate {
	out = appendIfValid(out, from.offset(-1, 2*owner.forward()))
	return appendIfValid(out, from.offset(1, 2*owner.forward()))
}

func addForwardDiagonalMovements(owner Player, from Coordinate, out []Coordinate) []Coordinate {
	out = appendIfValid(out, from.offset(-1, owner.forward()))
	return appendIfValid(out, from.offset(1, owner.forward()))
}

func addBackwardDiagonalMovements(owner Player, from Coordinate, out []Coordinate) []Coordinate {
	out = appendIfValid(out, from.offset(-1, -owner.forward()))
	return appendIfValid(out, from.offset(1, -owner.forward()))
}

func addSidewaysMovements(_ Player, from Coordinate, out []Coordinate) []Coordinate {
	out = appendIfValid(out, from.offset(-1, 0))
	return appendIfValid(out, from.offset(1, 0))
}

func addRangeForwardMovements(owner Player, from Coordinate, out []Coordinate) []Coordinate {
	for c := from.offset(0, owner.forward()); c.Valid(); c = c.offset(0, owner.forward()) {
		out = append(out, c)
	}
	return out
}

// Per distance the four arms are visited as (-d,-d), (+d,+d), (-d,+d), (+d,-d).
func addRangeDiagonalMovements(_ Player, from Coordinate, out []Coordinate) []Coordinate {
	for d := 1; d < boardSize; d++ {
		out = appendIfValid(out, from.offset(-d, -d))
		out = appendIfValid(out, from.offset(d, d))
		out = appendIfValid(out, from.offset(-d, d))
		out = appendIfValid(out, from.offset(d, -d))
	}
	return out
}

func addRangeOrthogonalMovements(_ Player, from Coordinate, out []Coordinate) []Coordinate {
	for r := from.Rank - 1; r >= 1; r-- {
		out = append(out, Coordinate{File: from.File, Rank: r})
	}
	for r := from.Rank + 1; r <= boardSize; r++ {
		out = append(out, Coordinate{File: from.File, Rank: r})
	}
	for f := from.File - 1; f >= 1; f-- {
		out = append(out, Coordinate{File: f, Rank: from.Rank})
	}
	for f := from.File + 1; f <= boardSize; f++ {
		out = append(out, Coordinate{File: f, Rank: from.Rank})
	}
	return out
}
