package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1"

// ErrInvalidFEN is returned for malformed FEN strings.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN parses a FEN string and returns a Position.
// Fields after the side to move are optional; the castling and en passant
// placeholders ("-") are accepted and ignored.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 fields, got %d", ErrInvalidFEN, len(parts))
	}

	pos := &Position{}
	pos.Clear()

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w", "r":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: invalid side to move: %s", ErrInvalidFEN, parts[1])
	}

	// Half-move clock and full-move number follow the two placeholders.
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid half-move clock: %s", ErrInvalidFEN, parts[4])
		}
		pos.HalfMoveClock = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid full-move number: %s", ErrInvalidFEN, parts[5])
		}
		pos.FullMoveNumber = fmn
	}

	if err := pos.Validate(); err != nil {
		return nil, err
	}

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != RankNB {
		return fmt.Errorf("%w: need %d ranks, got %d", ErrInvalidFEN, RankNB, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := RankNB - 1 - i // FEN starts from rank 9
		file := 0

		for _, c := range rankStr {
			if file >= FileNB {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank)
			}

			if c >= '1' && c <= '9' {
				// Skip empty squares
				file += int(c - '0')
			} else {
				// Place a piece
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fmt.Errorf("%w: invalid piece character: %c", ErrInvalidFEN, c)
				}
				pos.setPiece(piece, NewSquare(file, rank))
				file++
			}
		}

		if file != FileNB {
			return fmt.Errorf("%w: invalid number of squares in rank %d: got %d", ErrInvalidFEN, rank, file)
		}
	}

	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	// Piece placement
	for rank := RankNB - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < FileNB; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
			} else {
				if empty > 0 {
					sb.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				sb.WriteString(piece.String())
			}
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	// Placeholders, half-move clock and full-move number
	sb.WriteString(" - - ")
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
