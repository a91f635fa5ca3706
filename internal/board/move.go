package board

import (
	"errors"
	"fmt"
)

// Move encodes a xiangqi move in 16 bits:
// bits 0-6:  from square (0-89)
// bits 7-13: to square (0-89)
type Move uint16

// NoMove represents an invalid or null move.
const NoMove Move = 0

// ErrIllegalMove is returned by CheckMove for moves the position cannot apply.
var ErrIllegalMove = errors.New("illegal move")

// NewMove creates a move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<7
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x7F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 7) & 0x7F)
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture(pos *Position) bool {
	return !pos.IsEmpty(m.To())
}

// String returns the ICCS format of the move (e.g., "h2e2").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From().String() + m.To().String()
}

// ParseMove parses an ICCS format move string.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if from == to {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	return NewMove(from, to), nil
}

// DirtyPiece records the pieces a move displaced. The moving piece is
// always the first entry, so a king move is first when present. A capture
// adds the captured piece with To == NoSquare.
type DirtyPiece struct {
	Num   int
	Piece [2]Piece
	From  [2]Square
	To    [2]Square
}

func (dp *DirtyPiece) add(pc Piece, from, to Square) {
	dp.Piece[dp.Num] = pc
	dp.From[dp.Num] = from
	dp.To[dp.Num] = to
	dp.Num++
}

// UndoInfo stores information needed to undo a move.
type UndoInfo struct {
	CapturedPiece Piece
	HalfMoveClock int
	Dirty         DirtyPiece
}

// CheckMove verifies that the move picks up a piece of the side to move,
// does not land on a friendly piece and does not capture a king. Piece
// movement rules are the move generator's business and are not checked.
func (p *Position) CheckMove(m Move) error {
	from, to := m.From(), m.To()
	if !from.IsValid() || !to.IsValid() || from == to {
		return fmt.Errorf("%w: %s off board", ErrIllegalMove, m)
	}
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return fmt.Errorf("%w: no piece at %s", ErrIllegalMove, from)
	}
	if piece.Color() != p.SideToMove {
		return fmt.Errorf("%w: %s piece at %s, %s to move", ErrIllegalMove, piece.Color(), from, p.SideToMove)
	}
	target := p.PieceAt(to)
	if target != NoPiece && target.Color() == p.SideToMove {
		return fmt.Errorf("%w: %s is occupied by own piece", ErrIllegalMove, to)
	}
	if target.Type() == King {
		return fmt.Errorf("%w: %s captures the king", ErrIllegalMove, m)
	}
	if piece.Type() == King && !to.InPalace(piece.Color()) {
		return fmt.Errorf("%w: king leaves the palace", ErrIllegalMove)
	}
	return nil
}

// MakeMove applies a move to the position and returns undo information,
// including the change record for incremental feature updates.
// The move must pass CheckMove.
func (p *Position) MakeMove(m Move) UndoInfo {
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)

	undo := UndoInfo{
		CapturedPiece: p.PieceAt(to),
		HalfMoveClock: p.HalfMoveClock,
	}
	undo.Dirty.add(piece, from, to)

	if undo.CapturedPiece != NoPiece {
		undo.Dirty.add(undo.CapturedPiece, to, NoSquare)
		p.removePiece(to)
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	p.movePiece(from, to)

	if p.SideToMove == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = p.SideToMove.Other()

	return undo
}

// UnmakeMove undoes a move using the stored undo information.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	p.SideToMove = p.SideToMove.Other()
	if p.SideToMove == Black {
		p.FullMoveNumber--
	}

	p.movePiece(m.To(), m.From())
	if undo.CapturedPiece != NoPiece {
		p.setPiece(undo.CapturedPiece, m.To())
	}
	p.HalfMoveClock = undo.HalfMoveClock
}
