package features

import "math/bits"

// IndexList is a fixed-capacity list of feature indices.
type IndexList struct {
	Values [MaxActiveDimensions]int
	Size   int
}

// Push adds an index to the list. Overflowing the list means the caller
// handed over an impossible position or change record, so it panics.
func (l *IndexList) Push(idx int) {
	if l.Size >= MaxActiveDimensions {
		panic("features: index list overflow")
	}
	l.Values[l.Size] = idx
	l.Size++
}

// Clear resets the list
func (l *IndexList) Clear() {
	l.Size = 0
}

// Slice returns the filled part of the list.
func (l *IndexList) Slice() []int {
	return l.Values[:l.Size]
}

// Bitboard is a set of squares: bits 0-63 in Lo, squares 64-89 in Hi.
type Bitboard struct {
	Lo, Hi uint64
}

// Empty reports whether no square is set.
func (b Bitboard) Empty() bool {
	return b.Lo == 0 && b.Hi == 0
}

// PopLSB pops and returns the lowest square, -1 if the set is empty.
func (b *Bitboard) PopLSB() int {
	if b.Lo != 0 {
		sq := bits.TrailingZeros64(b.Lo)
		b.Lo &= b.Lo - 1
		return sq
	}
	if b.Hi != 0 {
		sq := 64 + bits.TrailingZeros64(b.Hi)
		b.Hi &= b.Hi - 1
		return sq
	}
	return -1
}
