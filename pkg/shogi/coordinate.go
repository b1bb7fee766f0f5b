package shogi

import "fmt"

const boardSize = 9

// Coordinate is a square on the 9x9 board. File runs 1..9 and rank runs
// 1..9, where rank 1 is written 'a' and rank 9 is written 'i'.
type Coordinate struct {
	File int
	Rank int
}

type Player int

const (
	Black Player = iota
	White
)

func (p Player) String() string {
	if p == White {
		return "white"
	}
	return "black"
}

func (p Player) Opponent() Player {
	if p == Black {
		return White
	}
	return Black
}

// forward is the rank delta of one step towards the opponent.
func (p Player) forward() int {
	if p == Black {
		return -1
	}
	return 1
}

func (p Player) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func ParsePlayer(text string) (Player, error) {
	switch text {
	case "black", "b", "sente":
		return Black, nil
	case "white", "w", "gote":
		return White, nil
	default:
		return Black, fmt.Errorf("invalid player: %s", text)
	}
}

func (c Coordinate) Valid() bool {
	return c.File >= 1 && c.File <= boardSize && c.Rank >= 1 && c.Rank <= boardSize
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d%c", c.File, rankToLetter(c.Rank))
}

func (c Coordinate) offset(df, dr int) Coordinate {
	return Coordinate{File: c.File + df, Rank: c.Rank + dr}
}

func rankToLetter(rank int) byte {
	return byte('a' + rank - 1)
}

// ParseCoordinate parses the two character form "<1-9><a-i>".
func ParseCoordinate(text string) (Coordinate, error) {
	if len(text) != 2 {
		return Coordinate{}, fmt.Errorf("invalid square: %q", text)
	}
	file := int(text[0] - '0')
	if text[0] < '1' || text[0] > '9' {
		return Coordinate{}, fmt.Errorf("invalid file: %q", text)
	}
	if text[1] < 'a' || text[1] > 'i' {
		return Coordinate{}, fmt.Errorf("invalid rank: %q", text)
	}
	rank := int(text[1]-'a') + 1
	return Coordinate{File: file, Rank: rank}, nil
}

// ParseMoveToken splits an origin+destination token such as "1g1f".
func ParseMoveToken(token string) (Coordinate, Coordinate, error) {
	if len(token) != 4 {
		return Coordinate{}, Coordinate{}, fmt.Errorf("invalid move: %q", token)
	}
	from, err := ParseCoordinate(token[0:2])
	if err != nil {
		return Coordinate{}, Coordinate{}, err
	}
	to, err := ParseCoordinate(token[2:4])
	if err != nil {
		return Coordinate{}, Coordinate{}, err
	}
	return from, to, nil
}

func mustCoordinate(text string) Coordinate {
	c, err := ParseCoordinate(text)
	if err != nil {
		panic(err)
	}
	return c
}
