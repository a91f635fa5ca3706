package board

import (
	"fmt"
	"math/bits"
)

// Bitboard represents a set of squares on the 90-square board.
// Bits 0-63 live in Lo, squares 64-89 in the low bits of Hi.
type Bitboard struct {
	Lo, Hi uint64
}

// Empty is the bitboard with no squares set.
var Empty = Bitboard{}

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	if sq < 64 {
		return Bitboard{Lo: 1 << sq}
	}
	return Bitboard{Hi: 1 << (sq - 64)}
}

// Set returns the bitboard with the given square set.
func (b Bitboard) Set(sq Square) Bitboard {
	return b.Or(SquareBB(sq))
}

// Clear returns the bitboard with the given square cleared.
func (b Bitboard) Clear(sq Square) Bitboard {
	return b.AndNot(SquareBB(sq))
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return !b.And(SquareBB(sq)).Empty()
}

// Or returns the union of two bitboards.
func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{b.Lo | o.Lo, b.Hi | o.Hi}
}

// And returns the intersection of two bitboards.
func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{b.Lo & o.Lo, b.Hi & o.Hi}
}

// AndNot returns the squares of b that are not in o.
func (b Bitboard) AndNot(o Bitboard) Bitboard {
	return Bitboard{b.Lo &^ o.Lo, b.Hi &^ o.Hi}
}

// Xor returns the symmetric difference of two bitboards.
func (b Bitboard) Xor(o Bitboard) Bitboard {
	return Bitboard{b.Lo ^ o.Lo, b.Hi ^ o.Hi}
}

// Empty returns true if no bits are set.
func (b Bitboard) Empty() bool {
	return b.Lo == 0 && b.Hi == 0
}

// PopCount returns the number of set bits (population count).
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.Lo) + bits.OnesCount64(b.Hi)
}

// LSB returns the least significant bit (lowest square index).
func (b Bitboard) LSB() Square {
	if b.Lo != 0 {
		return Square(bits.TrailingZeros64(b.Lo))
	}
	if b.Hi != 0 {
		return Square(64 + bits.TrailingZeros64(b.Hi))
	}
	return NoSquare
}

// PopLSB removes and returns the least significant bit.
func (b *Bitboard) PopLSB() Square {
	if b.Lo != 0 {
		sq := Square(bits.TrailingZeros64(b.Lo))
		b.Lo &= b.Lo - 1
		return sq
	}
	if b.Hi != 0 {
		sq := Square(64 + bits.TrailingZeros64(b.Hi))
		b.Hi &= b.Hi - 1
		return sq
	}
	return NoSquare
}

// Squares returns a slice of all squares that are set, lowest first.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for !b.Empty() {
		squares = append(squares, b.PopLSB())
	}
	return squares
}

// String returns a visual representation of the bitboard.
func (b Bitboard) String() string {
	s := ""
	for rank := RankNB - 1; rank >= 0; rank-- {
		s += fmt.Sprintf("%d ", rank)
		for file := 0; file < FileNB; file++ {
			if b.IsSet(NewSquare(file, rank)) {
				s += "1 "
			} else {
				s += ". "
			}
		}
		s += "\n"
	}
	s += "  a b c d e f g h i\n"
	return s
}
