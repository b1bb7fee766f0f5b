package shogi

import "fmt"

// Piece binds an owner, a position, a display letter and a fixed movement
// set. Only the position changes over a piece's life.
type Piece struct {
	owner     Player
	position  Coordinate
	shortName string
	movement  Movement
}

type pieceDef struct {
	kind      string
	shortName string
	movement  Movement
}

var pieceDefs = []pieceDef{
	{kind: "pawn", shortName: "P", movement: StepForward},
	{kind: "lance", shortName: "L", movement: SlideForward},
	{kind: "knight", shortName: "N", movement: JumpForward},
	{kind: "silver", shortName: "S", movement: StepForward | StepForwardDiagonal | StepBackwardDiagonal},
	{kind: "gold", shortName: "G", movement: StepForward | StepForwardDiagonal | StepSideways | StepBackward},
	{kind: "king", shortName: "K", movement: StepForward | StepForwardDiagonal | StepSideways | StepBackward | StepBackwardDiagonal},
	{kind: "bishop", shortName: "B", movement: SlideDiagonal},
	{kind: "rook", shortName: "R", movement: SlideOrthogonal},
}

func lookupPiece(name string) (pieceDef, bool) {
	for _, def := range pieceDefs {
		if def.kind == name || def.shortName == name {
			return def, true
		}
	}
	return pieceDef{}, false
}

// NewPiece creates a catalog piece by kind ("bishop") or short name ("B").
func NewPiece(kind string, owner Player, position Coordinate) (*Piece, error) {
	def, ok := lookupPiece(kind)
	if !ok {
		return nil, fmt.Errorf("unknown piece %s", kind)
	}
	return NewCustomPiece(def.shortName, owner, position, def.movement), nil
}

func NewCustomPiece(shortName string, owner Player, position Coordinate, movement Movement) *Piece {
	return &Piece{owner: owner, position: position, shortName: shortName, movement: movement}
}

func newCatalogPiece(shortName string, owner Player, position Coordinate) *Piece {
	piece, err := NewPiece(shortName, owner, position)
	if err != nil {
		panic(err)
	}
	return piece
}

func NewPawn(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("P", owner, position)
}

func NewLance(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("L", owner, position)
}

func NewKnight(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("N", owner, position)
}

func NewSilver(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("S", owner, position)
}

func NewGold(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("G", owner, position)
}

func NewKing(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("K", owner, position)
}

func NewBishop(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("B", owner, position)
}

func NewRook(owner Player, position Coordinate) *Piece {
	return newCatalogPiece("R", owner, position)
}

func (p *Piece) Owner() Player {
	return p.owner
}

func (p *Piece) Position() Coordinate {
	return p.position
}

func (p *Piece) ShortName() string {
	return p.shortName
}

func (p *Piece) Movement() Movement {
	return p.movement
}

func (p *Piece) IsMoveLegal(to Coordinate) bool {
	return Legal(p.movement, p.owner, p.position, to)
}

// PossibleMovements is recomputed from the current position on every call.
func (p *Piece) PossibleMovements() []Coordinate {
	return Destinations(p.movement, p.owner, p.position)
}

// Move relocates the piece without any legality check and returns the
// notation "<ShortName><origin>-<destination>".
func (p *Piece) Move(to Coordinate) string {
	notation := fmt.Sprintf("%s%s-%s", p.shortName, p.position, to)
	p.position = to
	return notation
}
