// Feature accumulator stack with lazy incremental updates.

package xqnnue

import (
	"fmt"
	"slices"

	"github.com/hailam/xqplay/xqnnue/features"
)

// MaxStackSize is the maximum search depth the stack can hold.
const MaxStackSize = 256

// Accumulator holds the active feature indices of one position.
type Accumulator struct {
	Features features.IndexList
	Bucket   int
	Computed bool

	// Dirty is the change record that leads from the previous entry to this one.
	Dirty features.DirtyPiece
}

// Stats counts how accumulators were brought up to date.
type Stats struct {
	Refreshes int // full re-enumerations of the board
	Updates   int // entries computed from their parent's deltas
}

// AccumulatorStack manages accumulators for search.
type AccumulatorStack struct {
	Accumulators [MaxStackSize]Accumulator
	Size         int
	Stats        Stats
}

// NewAccumulatorStack creates a new accumulator stack.
func NewAccumulatorStack() *AccumulatorStack {
	s := &AccumulatorStack{}
	s.Reset()
	return s
}

// Reset resets the stack to a single uncomputed root entry.
func (s *AccumulatorStack) Reset() {
	s.Size = 1
	s.Accumulators[0] = Accumulator{}
}

// Push records the change record of a move just made on the board.
// The new entry is computed lazily by Evaluate.
func (s *AccumulatorStack) Push(dp *features.DirtyPiece) {
	if s.Size >= MaxStackSize {
		panic("xqnnue: accumulator stack overflow")
	}
	acc := &s.Accumulators[s.Size]
	acc.Computed = false
	acc.Dirty = *dp
	s.Size++
}

// Pop drops the entry of the move being unmade.
func (s *AccumulatorStack) Pop() {
	if s.Size > 1 {
		s.Size--
	}
}

// Current returns the current accumulator.
func (s *AccumulatorStack) Current() *Accumulator {
	return &s.Accumulators[s.Size-1]
}

// Previous returns the previous accumulator, nil at the root.
func (s *AccumulatorStack) Previous() *Accumulator {
	if s.Size < 2 {
		return nil
	}
	return &s.Accumulators[s.Size-2]
}

// Refresh recomputes the current accumulator from the board.
func (s *AccumulatorStack) Refresh(pos features.Position) *Accumulator {
	acc := s.Current()
	acc.Features.Clear()
	acc.Bucket = features.KingBucket(pos)
	features.AppendActiveIndices(pos, &acc.Features)
	acc.Computed = true
	s.Stats.Refreshes++
	return acc
}

// Evaluate brings the current accumulator up to date with pos and returns it.
//
// It walks back to the nearest computed entry, giving up when a king move
// is crossed or the summed update cost exceeds a refresh. Deltas are then
// replayed forward, which also computes every entry on the way; otherwise
// the current entry is refreshed.
func (s *AccumulatorStack) Evaluate(pos features.Position) *Accumulator {
	top := s.Size - 1
	if s.Accumulators[top].Computed {
		return &s.Accumulators[top]
	}

	gain := features.RefreshCost(pos)
	i := top
	for i > 0 && !s.Accumulators[i].Computed {
		dp := &s.Accumulators[i].Dirty
		gain -= features.UpdateCost(dp) + 1
		if features.RequiresRefresh(dp) || gain < 0 {
			break
		}
		i--
	}

	if !s.Accumulators[i].Computed {
		return s.Refresh(pos)
	}
	for j := i + 1; j <= top; j++ {
		s.update(j)
	}
	return &s.Accumulators[top]
}

// update computes entry j from entry j-1 and the change record of j.
func (s *AccumulatorStack) update(j int) {
	prev, acc := &s.Accumulators[j-1], &s.Accumulators[j]

	var removed, added features.IndexList
	features.AppendChangedIndices(prev.Bucket, &acc.Dirty, &removed, &added)

	acc.Features = prev.Features
	acc.Bucket = prev.Bucket
	for _, idx := range removed.Slice() {
		removeIndex(&acc.Features, idx)
	}
	for _, idx := range added.Slice() {
		acc.Features.Push(idx)
	}
	acc.Computed = true
	s.Stats.Updates++
}

// removeIndex deletes idx from the list. Removing an inactive feature means
// the change record does not belong to the parent position, so it panics.
func removeIndex(l *features.IndexList, idx int) {
	for k := 0; k < l.Size; k++ {
		if l.Values[k] == idx {
			l.Size--
			l.Values[k] = l.Values[l.Size]
			return
		}
	}
	panic(fmt.Sprintf("xqnnue: removing inactive feature %d", idx))
}

// Matches reports whether acc holds exactly the features a refresh of pos
// would produce, in any order.
func (acc *Accumulator) Matches(pos features.Position) bool {
	if !acc.Computed || acc.Bucket != features.KingBucket(pos) {
		return false
	}
	var fresh features.IndexList
	features.AppendActiveIndices(pos, &fresh)
	if fresh.Size != acc.Features.Size {
		return false
	}
	got := slices.Clone(acc.Features.Slice())
	want := fresh.Slice()
	slices.Sort(got)
	slices.Sort(want)
	return slices.Equal(got, want)
}
