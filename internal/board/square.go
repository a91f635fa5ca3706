// Package board implements a xiangqi board representation for feature extraction.
package board

import "fmt"

// Board geometry: 9 files (a-i) by 10 ranks (0-9).
const (
	FileNB   = 9
	RankNB   = 10
	SquareNB = FileNB * RankNB
)

// Square represents a square on the board (0-89).
// Rank-major mapping: A0=0, I0=8, A9=81, I9=89. Rank 0 is White's back rank.
type Square uint8

// Corner squares and the empty marker.
const (
	A0       Square = 0
	I0       Square = 8
	A9       Square = 81
	I9       Square = 89
	NoSquare Square = SquareNB
)

// File returns the file (column) of the square (0-8, where 0=a, 8=i).
func (sq Square) File() int {
	return int(sq) % FileNB
}

// Rank returns the rank (row) of the square (0-9).
func (sq Square) Rank() int {
	return int(sq) / FileNB
}

// String returns the ICCS coordinate for the square (e.g., "e0").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '0'+sq.Rank())
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*FileNB + file)
}

// ParseSquare parses an ICCS coordinate (e.g., "h2") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	file := int(s[0]) - 'a'
	rank := int(s[1]) - '0'

	if file < 0 || file >= FileNB || rank < 0 || rank >= RankNB {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(file, rank), nil
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Mirror returns the square reflected across the e-file.
func (sq Square) Mirror() Square {
	return NewSquare(FileNB-1-sq.File(), sq.Rank())
}

// Flip returns the square reflected across the river (for Black's perspective).
func (sq Square) Flip() Square {
	return NewSquare(sq.File(), RankNB-1-sq.Rank())
}

// InPalace reports whether the square lies in the palace of the given color.
func (sq Square) InPalace(c Color) bool {
	f, r := sq.File(), sq.Rank()
	if f < 3 || f > 5 {
		return false
	}
	if c == White {
		return r <= 2
	}
	return r >= 7
}
