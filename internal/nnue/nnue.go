// Package nnue connects the board to the KP_hm feature set: it converts
// positions and move change records, and keeps an accumulator stack in
// step with moves made and unmade on a position.
package nnue

import (
	"errors"
	"fmt"

	"github.com/hailam/xqplay/internal/board"
	"github.com/hailam/xqplay/xqnnue"
)

// ErrDrift is returned by Verify when incremental features disagree with
// a full refresh.
var ErrDrift = errors.New("accumulator drift")

// Tracker owns a position and the accumulator stack that follows it.
type Tracker struct {
	pos   *board.Position
	stack *xqnnue.AccumulatorStack
	moves []board.Move
	undos []board.UndoInfo
}

// NewTracker creates a tracker for pos. The tracker mutates pos.
func NewTracker(pos *board.Position) *Tracker {
	return &Tracker{
		pos:   pos,
		stack: xqnnue.NewAccumulatorStack(),
	}
}

// Position returns the tracked position.
func (t *Tracker) Position() *board.Position {
	return t.pos
}

// Ply returns the number of moves made since the tracker was created.
func (t *Tracker) Ply() int {
	return len(t.moves)
}

// MakeMove checks and applies a move and pushes its change record.
func (t *Tracker) MakeMove(m board.Move) error {
	if err := t.pos.CheckMove(m); err != nil {
		return err
	}
	if t.stack.Size >= xqnnue.MaxStackSize {
		return fmt.Errorf("%w: ply limit %d reached", board.ErrIllegalMove, xqnnue.MaxStackSize-1)
	}
	undo := t.pos.MakeMove(m)
	dp := DirtyPieceOf(&undo.Dirty)
	t.stack.Push(&dp)
	t.moves = append(t.moves, m)
	t.undos = append(t.undos, undo)
	return nil
}

// UnmakeMove takes back the last move. It is a no-op at the root.
func (t *Tracker) UnmakeMove() {
	n := len(t.moves)
	if n == 0 {
		return
	}
	t.pos.UnmakeMove(t.moves[n-1], t.undos[n-1])
	t.moves = t.moves[:n-1]
	t.undos = t.undos[:n-1]
	t.stack.Pop()
}

// LastUndo returns the undo information of the last move, nil at the root.
func (t *Tracker) LastUndo() *board.UndoInfo {
	if len(t.undos) == 0 {
		return nil
	}
	return &t.undos[len(t.undos)-1]
}

// Active brings the accumulator up to date and returns it.
func (t *Tracker) Active() *xqnnue.Accumulator {
	return t.stack.Evaluate(View{t.pos})
}

// Verify compares the current accumulator with a full refresh.
func (t *Tracker) Verify() error {
	acc := t.Active()
	if !acc.Matches(View{t.pos}) {
		bucket, _ := ActiveFeatures(t.pos)
		return fmt.Errorf("%w at ply %d: bucket %d, refresh bucket %d", ErrDrift, t.Ply(), acc.Bucket, bucket)
	}
	return nil
}

// Stats returns how many refreshes and incremental updates were done.
func (t *Tracker) Stats() xqnnue.Stats {
	return t.stack.Stats
}
