package board

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is returned when a position breaks a board invariant.
var ErrInvalidPosition = errors.New("invalid position")

// Position represents a complete xiangqi position.
type Position struct {
	// Mailbox for O(1) piece lookup
	Board [SquareNB]Piece

	// Piece bitboards: [Color][PieceType]
	Pieces [2][8]Bitboard

	// Occupancy bitboards (cached for efficiency)
	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board

	// Game state
	SideToMove     Color
	HalfMoveClock  int // Plies since last capture
	FullMoveNumber int // Full move counter, starts at 1

	// King positions
	KingSquare [2]Square
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// PieceCount returns the number of pieces on the board, kings included.
func (p *Position) PieceCount() int {
	return p.AllOccupied.PopCount()
}

// NonKings returns the occupied squares minus both king squares.
func (p *Position) NonKings() Bitboard {
	return p.AllOccupied.AndNot(p.Pieces[White][King].Or(p.Pieces[Black][King]))
}

// setPiece places a piece on an empty square.
func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Board[sq] = piece
	p.Pieces[c][pt] = p.Pieces[c][pt].Or(bb)
	p.Occupied[c] = p.Occupied[c].Or(bb)
	p.AllOccupied = p.AllOccupied.Or(bb)

	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePiece removes a piece from a square.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Board[sq]
	if piece == NoPiece {
		return NoPiece
	}

	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Board[sq] = NoPiece
	p.Pieces[c][pt] = p.Pieces[c][pt].AndNot(bb)
	p.Occupied[c] = p.Occupied[c].AndNot(bb)
	p.AllOccupied = p.AllOccupied.AndNot(bb)

	return piece
}

// movePiece moves a piece from one square to an empty square.
func (p *Position) movePiece(from, to Square) {
	piece := p.Board[from]
	if piece == NoPiece {
		return
	}

	c := piece.Color()
	pt := piece.Type()
	moveBB := SquareBB(from).Or(SquareBB(to))

	p.Board[from] = NoPiece
	p.Board[to] = piece
	p.Pieces[c][pt] = p.Pieces[c][pt].Xor(moveBB)
	p.Occupied[c] = p.Occupied[c].Xor(moveBB)
	p.AllOccupied = p.AllOccupied.Xor(moveBB)

	if pt == King {
		p.KingSquare[c] = to
	}
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	s := "\n"
	for rank := RankNB - 1; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank)
		for file := 0; file < FileNB; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h i\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Half-move clock: %d\n", p.HalfMoveClock)
	s += fmt.Sprintf("Full move: %d\n", p.FullMoveNumber)
	return s
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		FullMoveNumber: 1,
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
}

// Validate checks that each side has exactly one king inside its palace
// and no more pieces of any type than the starting set. Positions passing
// this check never overflow a feature index list.
func (p *Position) Validate() error {
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, c, n)
		}
		if !p.KingSquare[c].InPalace(c) {
			return fmt.Errorf("%w: %s king on %s is outside the palace",
				ErrInvalidPosition, c, p.KingSquare[c])
		}
		for pt := Rook; pt < King; pt++ {
			if n := p.Pieces[c][pt].PopCount(); n > MaxPieces[pt] {
				return fmt.Errorf("%w: %s has %d pieces of type %s",
					ErrInvalidPosition, c, n, pt)
			}
		}
	}
	return nil
}

// Material returns the number of pieces of each color, kings excluded.
func (p *Position) Material() [2]int {
	var m [2]int
	for c := White; c <= Black; c++ {
		m[c] = p.Occupied[c].AndNot(p.Pieces[c][King]).PopCount()
	}
	return m
}
