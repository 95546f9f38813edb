package game

// History is a single-branch undo stack of full state snapshots. There is no redo.
type History struct {
	snapshots []State
}

// Push records a deep copy of s. Call it with the pre-mutation state.
func (h *History) Push(s State) {
	h.snapshots = append(h.snapshots, s.Clone())
}

// Undo pops the most recent snapshot. With nothing recorded it returns
// current unchanged and false.
func (h *History) Undo(current State) (State, bool) {
	if len(h.snapshots) == 0 {
		return current, false
	}
	last := len(h.snapshots) - 1
	prev := h.snapshots[last]
	h.snapshots[last] = State{}
	h.snapshots = h.snapshots[:last]
	return prev, true
}

// Len returns the number of recorded snapshots
func (h *History) Len() int {
	return len(h.snapshots)
}

// Clear drops every snapshot
func (h *History) Clear() {
	h.snapshots = nil
}
