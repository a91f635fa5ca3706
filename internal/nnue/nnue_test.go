package nnue

import (
	"errors"
	"testing"

	"github.com/hailam/xqplay/internal/board"
	"github.com/hailam/xqplay/xqnnue/features"
)

// A short game exercising quiet moves, captures and king moves for both sides.
var scriptedGame = []string{
	"h2e2", "h9g7", "h0g2", "i9h9", "i0h0", "b7b0",
	"a0b0", "e9e8", "e2e6", "e8d8", "e0e1", "h7h0",
}

func mustMove(t *testing.T, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%s): %v", s, err)
	}
	return m
}

func TestPieceEncoding(t *testing.T) {
	pairs := []struct {
		bp board.Piece
		fp int
	}{
		{board.NoPiece, features.NO_PIECE},
		{board.WhiteRook, features.W_ROOK},
		{board.WhiteAdvisor, features.W_ADVISOR},
		{board.WhiteCannon, features.W_CANNON},
		{board.WhitePawn, features.W_PAWN},
		{board.WhiteKnight, features.W_KNIGHT},
		{board.WhiteBishop, features.W_BISHOP},
		{board.WhiteKing, features.W_KING},
		{board.BlackRook, features.B_ROOK},
		{board.BlackAdvisor, features.B_ADVISOR},
		{board.BlackCannon, features.B_CANNON},
		{board.BlackPawn, features.B_PAWN},
		{board.BlackKnight, features.B_KNIGHT},
		{board.BlackBishop, features.B_BISHOP},
		{board.BlackKing, features.B_KING},
	}
	for _, p := range pairs {
		if int(p.bp) != p.fp {
			t.Errorf("board piece %v = %d, feature piece = %d", p.bp, p.bp, p.fp)
		}
	}
	if int(board.NoSquare) != features.SQ_NONE {
		t.Errorf("NoSquare = %d, SQ_NONE = %d", board.NoSquare, features.SQ_NONE)
	}
}

func TestActiveFeaturesStartPosition(t *testing.T) {
	pos := board.NewPosition()
	bucket, active := ActiveFeatures(pos)

	if active.Size != 30 {
		t.Errorf("active features = %d, want 30", active.Size)
	}
	if features.IsMirrored(bucket) {
		t.Error("start position bucket is mirrored")
	}
	if want := features.BucketOf(int(board.NewSquare(4, 0)), int(board.NewSquare(4, 9))); bucket != want {
		t.Errorf("bucket = %d, want %d", bucket, want)
	}
	seen := make(map[int]bool)
	for _, idx := range active.Slice() {
		if idx < 0 || idx >= features.Dimensions {
			t.Fatalf("index %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("duplicate index %d", idx)
		}
		seen[idx] = true
	}
}

func TestChangedFeatures(t *testing.T) {
	pos := board.NewPosition()
	bucket, before := ActiveFeatures(pos)

	undo := pos.MakeMove(mustMove(t, "b2b9"))
	removed, added, refresh := ChangedFeatures(bucket, &undo)
	if refresh {
		t.Fatal("cannon capture requested a refresh")
	}
	if removed.Size != 2 || added.Size != 1 {
		t.Fatalf("removed %d added %d, want 2 and 1", removed.Size, added.Size)
	}

	// before - removed + added must equal a fresh enumeration.
	set := make(map[int]int)
	for _, idx := range before.Slice() {
		set[idx]++
	}
	for _, idx := range removed.Slice() {
		set[idx]--
	}
	for _, idx := range added.Slice() {
		set[idx]++
	}
	_, after := ActiveFeatures(pos)
	for _, idx := range after.Slice() {
		set[idx]--
	}
	for idx, n := range set {
		if n != 0 {
			t.Errorf("index %d off by %d", idx, n)
		}
	}
}

func TestChangedFeaturesKingMove(t *testing.T) {
	pos, err := board.ParseFEN("3ak4/9/9/9/9/9/9/9/4A4/4K4 w")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	bucket, _ := ActiveFeatures(pos)
	undo := pos.MakeMove(mustMove(t, "e0d0"))
	if _, _, refresh := ChangedFeatures(bucket, &undo); !refresh {
		t.Error("king move did not request a refresh")
	}
}

func TestDirtyPieceOf(t *testing.T) {
	pos := board.NewPosition()
	undo := pos.MakeMove(mustMove(t, "b2b9"))
	dp := DirtyPieceOf(&undo.Dirty)

	if dp.DirtyNum != 2 {
		t.Fatalf("DirtyNum = %d, want 2", dp.DirtyNum)
	}
	if dp.Piece[0] != features.W_CANNON || dp.Piece[1] != features.B_KNIGHT {
		t.Errorf("pieces = %v", dp.Piece)
	}
	if dp.To[1] != features.SQ_NONE {
		t.Errorf("captured piece To = %d, want SQ_NONE", dp.To[1])
	}
}

func TestTrackerScriptedGame(t *testing.T) {
	tr := NewTracker(board.NewPosition())
	if err := tr.Verify(); err != nil {
		t.Fatalf("root: %v", err)
	}

	kingMoves := 0
	for _, s := range scriptedGame {
		m := mustMove(t, s)
		if tr.Position().PieceAt(m.From()).Type() == board.King {
			kingMoves++
		}
		if err := tr.MakeMove(m); err != nil {
			t.Fatalf("MakeMove(%s): %v", s, err)
		}
		if err := tr.Verify(); err != nil {
			t.Fatalf("after %s: %v", s, err)
		}
	}

	stats := tr.Stats()
	if stats.Refreshes != 1+kingMoves {
		t.Errorf("Refreshes = %d, want %d", stats.Refreshes, 1+kingMoves)
	}
	if stats.Updates != len(scriptedGame)-kingMoves {
		t.Errorf("Updates = %d, want %d", stats.Updates, len(scriptedGame)-kingMoves)
	}

	for tr.Ply() > 0 {
		tr.UnmakeMove()
		if err := tr.Verify(); err != nil {
			t.Fatalf("unmake to ply %d: %v", tr.Ply(), err)
		}
	}
	if tr.Position().ToFEN() != board.StartFEN {
		t.Errorf("position not restored: %s", tr.Position().ToFEN())
	}
	if got := tr.Stats(); got != stats {
		t.Errorf("unmaking recomputed accumulators: %+v, before %+v", got, stats)
	}
}

func TestTrackerLazyUpdates(t *testing.T) {
	tr := NewTracker(board.NewPosition())
	tr.Active()

	for _, s := range scriptedGame[:4] {
		if err := tr.MakeMove(mustMove(t, s)); err != nil {
			t.Fatalf("MakeMove(%s): %v", s, err)
		}
	}
	if err := tr.Verify(); err != nil {
		t.Fatal(err)
	}
	if s := tr.Stats(); s.Refreshes != 1 || s.Updates != 4 {
		t.Errorf("Stats = %+v, want 1 refresh and 4 updates", s)
	}
}

func TestTrackerKingMoveInLazyChain(t *testing.T) {
	pos, err := board.ParseFEN("3ak4/9/9/9/9/9/9/2C6/4A4/4K4 w")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	tr := NewTracker(pos)
	tr.Active()

	for _, s := range []string{"c2c5", "e9e8", "c5c2"} {
		if err := tr.MakeMove(mustMove(t, s)); err != nil {
			t.Fatalf("MakeMove(%s): %v", s, err)
		}
	}
	if err := tr.Verify(); err != nil {
		t.Fatal(err)
	}
	if s := tr.Stats(); s.Refreshes != 2 || s.Updates != 0 {
		t.Errorf("Stats = %+v, want 2 refreshes and no updates", s)
	}
}

func TestTrackerRejectsIllegalMove(t *testing.T) {
	tr := NewTracker(board.NewPosition())
	err := tr.MakeMove(mustMove(t, "e5e4"))
	if !errors.Is(err, board.ErrIllegalMove) {
		t.Fatalf("MakeMove error = %v, want ErrIllegalMove", err)
	}
	if tr.Ply() != 0 {
		t.Errorf("Ply = %d after rejected move", tr.Ply())
	}
}
