// KP_hm feature set for xiangqi NNUE evaluation.
//
// Feature KP_hm: combination of the position of both kings and the position
// of every other piece. The position is mirrored when the white king is on
// file f, or when the white king is on file e and the black king is on file f.

package features

// Board geometry
const (
	FILE_NB   = 9
	RANK_NB   = 10
	SQUARE_NB = FILE_NB * RANK_NB // 90

	// SQ_NONE marks an undefined square in a change record.
	SQ_NONE = SQUARE_NB
)

// Color constants
const (
	White = 0
	Black = 1

	COLOR_NB = 2
)

// Piece type constants
const (
	NO_PIECE_TYPE = 0
	ROOK          = 1
	ADVISOR       = 2
	CANNON        = 3
	PAWN          = 4
	KNIGHT        = 5
	BISHOP        = 6
	KING          = 7

	PIECE_TYPE_NB = 8
)

// Piece constants (color<<3 | type)
const (
	NO_PIECE = 0

	W_ROOK    = 1
	W_ADVISOR = 2
	W_CANNON  = 3
	W_PAWN    = 4
	W_KNIGHT  = 5
	W_BISHOP  = 6
	W_KING    = 7

	B_ROOK    = 9
	B_ADVISOR = 10
	B_CANNON  = 11
	B_PAWN    = 12
	B_KNIGHT  = 13
	B_BISHOP  = 14
	B_KING    = 15

	PIECE_NB = 16
)

// Unique number for each piece type on each square
const (
	PS_NONE      = 0
	PS_W_ROOK    = 0
	PS_B_ROOK    = 1 * SQUARE_NB
	PS_W_ADVISOR = 2 * SQUARE_NB
	PS_B_ADVISOR = 3 * SQUARE_NB
	PS_W_CANNON  = 4 * SQUARE_NB
	PS_B_CANNON  = 5 * SQUARE_NB
	PS_W_PAWN    = 6 * SQUARE_NB
	PS_B_PAWN    = 7 * SQUARE_NB
	PS_W_KNIGHT  = 8 * SQUARE_NB
	PS_B_KNIGHT  = 9 * SQUARE_NB
	PS_W_BISHOP  = 10 * SQUARE_NB
	PS_B_BISHOP  = 11 * SQUARE_NB
	PS_NB        = 12 * SQUARE_NB // 1080
)

// Feature name
const Name = "KP_hm"

// Hash value embedded in the evaluation file. Any change to the tables
// below must come with a new value.
const HashValue uint32 = 0xd17b100

// KingBucketNB is the number of distinct king buckets after mirroring.
const KingBucketNB = 3*9 + 3*6 // 45

// Number of feature dimensions
const Dimensions = KingBucketNB * PS_NB // 48600

// Maximum number of simultaneously active features (32 pieces minus both kings).
const MaxActiveDimensions = 30

// Bucket packing: the low six bits hold the bucket id, bit 6 the mirror flag.
const (
	BucketMask = 63
	MirrorFlag = 1 << 6
)

// PieceSquareIndex maps a piece to its block offset.
// Convention: W - us, B - them. Kings and NO_PIECE map to PS_NONE and are
// never indexed.
var PieceSquareIndex = [PIECE_NB]int{
	PS_NONE, PS_W_ROOK, PS_W_ADVISOR, PS_W_CANNON, PS_W_PAWN, PS_W_KNIGHT, PS_W_BISHOP, PS_NONE,
	PS_NONE, PS_B_ROOK, PS_B_ADVISOR, PS_B_CANNON, PS_B_PAWN, PS_B_KNIGHT, PS_B_BISHOP, PS_NONE,
}

// KingMaps maps a king square to its zone. White zones are pre-multiplied
// by 9 so that KingMaps[wk] + KingMaps[bk] indexes KingBuckets directly.
// Squares outside both palaces map to 0.
var KingMaps = [SQUARE_NB]int{
	0, 0, 0, 0, 9, 18, 0, 0, 0,
	0, 0, 0, 27, 36, 45, 0, 0, 0,
	0, 0, 0, 54, 63, 72, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 6, 7, 8, 0, 0, 0,
	0, 0, 0, 3, 4, 5, 0, 0, 0,
	0, 0, 0, 0, 1, 2, 0, 0, 0,
}

// mir packs a mirrored bucket.
func mir(b int) int { return MirrorFlag | b }

// KingBuckets maps a king zone pair to a packed bucket (mirror<<6 | bucket).
var KingBuckets = [81]int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, // white king on zone 0, no mirror
	9, 10, mir(9), 11, 12, mir(11), 13, 14, mir(13), // white king on zone 9, mirror for black
	mir(2), mir(1), mir(0), mir(5), mir(4), mir(3), mir(8), mir(7), mir(6), // white king on zone 18, mirror for white
	15, 16, 17, 18, 19, 20, 21, 22, 23, // white king on zone 27, no mirror
	24, 25, mir(24), 26, 27, mir(26), 28, 29, mir(28), // white king on zone 36, mirror for black
	mir(17), mir(16), mir(15), mir(20), mir(19), mir(18), mir(23), mir(22), mir(21), // white king on zone 45, mirror for white
	30, 31, 32, 33, 34, 35, 36, 37, 38, // white king on zone 54, no mirror
	39, 40, mir(39), 41, 42, mir(41), 43, 44, mir(43), // white king on zone 63, mirror for black
	mir(32), mir(31), mir(30), mir(35), mir(34), mir(33), mir(38), mir(37), mir(36), // white king on zone 72, mirror for white
}

// Mirror reflects a square across the e-file.
var Mirror = [SQUARE_NB]int{
	8, 7, 6, 5, 4, 3, 2, 1, 0,
	17, 16, 15, 14, 13, 12, 11, 10, 9,
	26, 25, 24, 23, 22, 21, 20, 19, 18,
	35, 34, 33, 32, 31, 30, 29, 28, 27,
	44, 43, 42, 41, 40, 39, 38, 37, 36,
	53, 52, 51, 50, 49, 48, 47, 46, 45,
	62, 61, 60, 59, 58, 57, 56, 55, 54,
	71, 70, 69, 68, 67, 66, 65, 64, 63,
	80, 79, 78, 77, 76, 75, 74, 73, 72,
	89, 88, 87, 86, 85, 84, 83, 82, 81,
}

// TypeOf returns the piece type of a piece.
func TypeOf(pc int) int {
	return pc & 7
}

// ColorOf returns the color of a piece.
func ColorOf(pc int) int {
	return pc >> 3
}

// BucketIndex strips the mirror flag from a packed bucket.
func BucketIndex(bucket int) int {
	return bucket & BucketMask
}

// IsMirrored reports whether a packed bucket requests mirrored squares.
func IsMirrored(bucket int) bool {
	return bucket&MirrorFlag != 0
}

// BucketOf returns the packed bucket for a pair of king squares.
func BucketOf(wksq, bksq int) int {
	return KingBuckets[KingMaps[wksq]+KingMaps[bksq]]
}

// MakeIndex computes the feature index for a non-king piece on a square
// under the given packed bucket.
func MakeIndex(sq int, pc int, bucket int) int {
	if IsMirrored(bucket) {
		sq = Mirror[sq]
	}
	return PS_NB*BucketIndex(bucket) + PieceSquareIndex[pc] + sq
}

// DirtyPiece is the change record of one move application: the pieces that
// left a square (From) and/or reached one (To). A king move, if any, is the
// first entry.
type DirtyPiece struct {
	DirtyNum int
	Piece    [MaxDirtyPieces]int
	From     [MaxDirtyPieces]int
	To       [MaxDirtyPieces]int
}

// MaxDirtyPieces bounds the entries of a change record. A xiangqi move
// dirties at most two pieces; the third slot carries appearances.
const MaxDirtyPieces = 3

// Add appends an entry to the change record.
func (dp *DirtyPiece) Add(pc, from, to int) {
	if dp.DirtyNum >= MaxDirtyPieces {
		panic("features: change record overflow")
	}
	dp.Piece[dp.DirtyNum] = pc
	dp.From[dp.DirtyNum] = from
	dp.To[dp.DirtyNum] = to
	dp.DirtyNum++
}

// Reset empties the change record.
func (dp *DirtyPiece) Reset() {
	*dp = DirtyPiece{}
}

// Position is the read-only view of a board the feature set needs.
type Position interface {
	// KingSquare returns the square of the king of the given color.
	KingSquare(color int) int
	// PieceOn returns the piece on a square, NO_PIECE if empty.
	PieceOn(sq int) int
	// NonKingPieces returns the occupied squares minus both king squares.
	NonKingPieces() Bitboard
	// PieceCount returns the number of pieces on the board, kings included.
	PieceCount() int
}

// KingBucket returns the packed bucket of a position.
func KingBucket(pos Position) int {
	return BucketOf(pos.KingSquare(White), pos.KingSquare(Black))
}

// AppendActiveIndices gets a list of indices for active features.
func AppendActiveIndices(pos Position, active *IndexList) {
	bucket := KingBucket(pos)
	bb := pos.NonKingPieces()
	for !bb.Empty() {
		sq := bb.PopLSB()
		active.Push(MakeIndex(sq, pos.PieceOn(sq), bucket))
	}
}

// AppendChangedIndices gets a list of indices for recently changed features.
func AppendChangedIndices(bucket int, dp *DirtyPiece, removed, added *IndexList) {
	for i := 0; i < dp.DirtyNum; i++ {
		if dp.From[i] != SQ_NONE {
			removed.Push(MakeIndex(dp.From[i], dp.Piece[i], bucket))
		}
		if dp.To[i] != SQ_NONE {
			added.Push(MakeIndex(dp.To[i], dp.Piece[i], bucket))
		}
	}
}

// UpdateCost returns the cost of updating one perspective incrementally.
func UpdateCost(dp *DirtyPiece) int {
	return dp.DirtyNum
}

// RefreshCost returns the cost of a full refresh.
func RefreshCost(pos Position) int {
	return pos.PieceCount() - 2
}

// RequiresRefresh returns whether the change means a full accumulator
// refresh is required: a king move changes the bucket itself.
func RequiresRefresh(dp *DirtyPiece) bool {
	return dp.DirtyNum > 0 && TypeOf(dp.Piece[0]) == KING
}
