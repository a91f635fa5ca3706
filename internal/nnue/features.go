package nnue

import (
	"github.com/hailam/xqplay/internal/board"
	"github.com/hailam/xqplay/xqnnue/features"
)

// View adapts a board position to the feature set's read-only position.
// Board pieces and squares share the feature encoding, so no lookup
// tables are needed.
type View struct {
	Pos *board.Position
}

// KingSquare returns the king square of the given color.
func (v View) KingSquare(color int) int {
	return int(v.Pos.KingSquare[color])
}

// PieceOn returns the piece on sq.
func (v View) PieceOn(sq int) int {
	return int(v.Pos.Board[sq])
}

// NonKingPieces returns the occupied squares minus the kings.
func (v View) NonKingPieces() features.Bitboard {
	return features.Bitboard(v.Pos.NonKings())
}

// PieceCount returns the number of pieces, kings included.
func (v View) PieceCount() int {
	return v.Pos.PieceCount()
}

// DirtyPieceOf converts the board's change record of a move.
func DirtyPieceOf(d *board.DirtyPiece) features.DirtyPiece {
	var dp features.DirtyPiece
	for i := 0; i < d.Num; i++ {
		from, to := features.SQ_NONE, features.SQ_NONE
		if d.From[i] != board.NoSquare {
			from = int(d.From[i])
		}
		if d.To[i] != board.NoSquare {
			to = int(d.To[i])
		}
		dp.Add(int(d.Piece[i]), from, to)
	}
	return dp
}

// ActiveFeatures returns the packed king bucket and the active feature
// indices of a position.
func ActiveFeatures(pos *board.Position) (bucket int, active features.IndexList) {
	v := View{pos}
	bucket = features.KingBucket(v)
	features.AppendActiveIndices(v, &active)
	return bucket, active
}

// ChangedFeatures returns the indices a move removed and added under the
// bucket of the position it was played from. It reports refresh=true when
// the move displaced a king, in which case the deltas are meaningless and
// the caller must recompute with ActiveFeatures.
func ChangedFeatures(bucket int, undo *board.UndoInfo) (removed, added features.IndexList, refresh bool) {
	dp := DirtyPieceOf(&undo.Dirty)
	if features.RequiresRefresh(&dp) {
		return removed, added, true
	}
	features.AppendChangedIndices(bucket, &dp, &removed, &added)
	return removed, added, false
}
