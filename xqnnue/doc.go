/*
Package xqnnue maintains the sparse NNUE input features of a xiangqi position.

The feature set itself lives in the features subpackage (KP_hm: both king
squares select one of 45 buckets, mirrored across the e-file where the king
placement allows it, and every other piece contributes one index inside that
bucket's block). This package is the consumer side of that feature set:

  - AccumulatorStack tracks the active feature indices ply by ply. Moves push
    their change record; indices are brought up to date lazily, either by
    replaying the add/remove deltas from the nearest computed ancestor or by a
    full refresh when a king moved or replaying would cost more than
    re-enumerating the board.
  - ReadHeader and CheckCompatibility validate that a network file was
    trained for this exact feature set before any weights are read.

No weight arithmetic happens here; the forward pass owns that.

# Usage

	stack := xqnnue.NewAccumulatorStack()
	acc := stack.Evaluate(pos) // refresh at the root

	undo := board.MakeMove(m)
	stack.Push(&dirty) // change record of the move
	acc = stack.Evaluate(pos)
	...
	board.UnmakeMove(m, undo)
	stack.Pop()
*/
package xqnnue
