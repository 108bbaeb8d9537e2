package trace

import (
	"iter"
	"strconv"
)

// FrameExecution is one continuous interval during which a frame occupied
// the same position of the sampled call stack.
type FrameExecution struct {
	FrameID int `json:"frameId"`
	// 1-based position of the frame counted from the stack root
	StackDepth int     `json:"stackDepth"`
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
}

type runningFrame struct {
	frameID    int
	stackDepth int
	start      float64
}

// FrameIterator reconstructs frame executions from a trace in a single
// forward pass over its samples. It is not restartable: once drained it
// keeps reporting exhaustion.
//
// Executions are emitted when a frame leaves the active stack, so frames
// still active at the last sample are never reported.
type FrameIterator struct {
	trace   *Trace
	next    int
	running map[string]runningFrame
	order   []string
	pending []FrameExecution
	err     error
}

// IterateFrames returns an iterator over the frame executions of t.
func IterateFrames(t *Trace) *FrameIterator {
	return &FrameIterator{
		trace:   t,
		running: make(map[string]runningFrame),
	}
}

// Next returns the next frame execution.
func (it *FrameIterator) Next() (FrameExecution, bool) {
	for len(it.pending) == 0 {
		if it.err != nil || it.next >= len(it.trace.Samples) {
			return FrameExecution{}, false
		}
		it.step(it.trace.Samples[it.next])
		it.next++
	}
	fe := it.pending[0]
	it.pending = it.pending[1:]
	return fe, true
}

// Err reports a malformed stack table encountered while iterating.
func (it *FrameIterator) Err() error {
	return it.err
}

// All drains the iterator as a range-over-func sequence.
func (it *FrameIterator) All() iter.Seq[FrameExecution] {
	return func(yield func(FrameExecution) bool) {
		for {
			fe, ok := it.Next()
			if !ok || !yield(fe) {
				return
			}
		}
	}
}

// Collect drains the iterator into a slice.
func (it *FrameIterator) Collect() ([]FrameExecution, error) {
	var out []FrameExecution
	for fe := range it.All() {
		out = append(out, fe)
	}
	return out, it.err
}

func (it *FrameIterator) step(sample Sample) {
	chain, err := it.trace.FrameChain(sample.StackID)
	if err != nil {
		it.err = err
		return
	}

	// Blocks are keyed by frame and position from the root; the walk
	// counts depth from the stack top, so the position is size - depth.
	size := len(chain)
	active := make(map[string]runningFrame, size)
	activeOrder := make([]string, 0, size)
	for depth := size - 1; depth >= 0; depth-- {
		frameID := chain[depth]
		position := size - depth
		id := strconv.Itoa(frameID) + "-" + strconv.Itoa(position)
		active[id] = runningFrame{frameID: frameID, stackDepth: position, start: sample.Timestamp}
		activeOrder = append(activeOrder, id)
	}

	kept := it.order[:0]
	for _, id := range it.order {
		if _, ok := active[id]; ok {
			kept = append(kept, id)
			continue
		}
		rf := it.running[id]
		it.pending = append(it.pending, FrameExecution{
			FrameID:    rf.frameID,
			StackDepth: rf.stackDepth,
			Start:      rf.start,
			Duration:   sample.Timestamp - rf.start,
		})
		delete(it.running, id)
	}
	it.order = kept

	for _, id := range activeOrder {
		if _, ok := it.running[id]; ok {
			continue
		}
		it.running[id] = active[id]
		it.order = append(it.order, id)
	}
}
