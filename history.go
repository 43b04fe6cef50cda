package cutout

// HistoryCapacity is the maximum number of snapshots kept for undo.
const HistoryCapacity = 30

// History is a bounded stack of encoded surface snapshots, most recent last.
// When full, pushing a new snapshot evicts the oldest one.
type History struct {
	entries  [][]byte
	capacity int
}

// NewHistory creates an empty history. A non-positive capacity falls back to HistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{
		entries:  make([][]byte, 0, capacity),
		capacity: capacity,
	}
}

// Reset drops every snapshot and records the initial state.
func (h *History) Reset(initial []byte) {
	for i := range h.entries {
		h.entries[i] = nil
	}
	h.entries = append(h.entries[:0], initial)
}

// Push appends a snapshot, evicting the oldest entry on overflow.
func (h *History) Push(snapshot []byte) {
	if len(h.entries) == h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = nil
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, snapshot)
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	return len(h.entries)
}

// Top returns the most recent snapshot, or nil if the history is empty.
func (h *History) Top() []byte {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[len(h.entries)-1]
}

// Oldest returns the oldest retained snapshot, or nil if the history is empty.
func (h *History) Oldest() []byte {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0]
}

// Undo discards the most recent snapshot and hands the new top to restore.
// With a single entry left Undo is a no-op and reports false. When restore fails
// the history is left as it was.
func (h *History) Undo(restore func(snapshot []byte) error) (bool, error) {
	n := len(h.entries)
	if n <= 1 {
		return false, nil
	}
	if err := restore(h.entries[n-2]); err != nil {
		return false, err
	}
	h.entries[n-1] = nil
	h.entries = h.entries[:n-1]
	return true, nil
}
