package diet

// DefaultHistoryLimit bounds the number of undo steps kept per session.
const DefaultHistoryLimit = 100

// HistoryEntry is the meal collection as it was before one mutation.
type HistoryEntry struct {
	Index int
	Meals []Meal
}

// History is a linear undo stack stored as an array of pre-mutation
// snapshots plus a pointer:
//
//	index == len(entries)-1  at head, nothing to redo
//	index <  len(entries)-1  mid-history, redo available
//	index == -1              nothing to undo
//
// A new mutation while mid-history discards the redo tail.
type History struct {
	entries []HistoryEntry
	index   int
	limit   int
	seq     int

	// tip is the state after the newest mutation, captured on the first undo
	// from head so that the final redo has something to return to.
	tip []Meal
}

// NewHistory returns an empty history keeping at most limit entries
// (DefaultHistoryLimit when limit <= 0).
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{index: -1, limit: limit}
}

// Record pushes the pre-mutation snapshot, truncating any redo tail and
// evicting the oldest entry once the limit is exceeded.
func (h *History) Record(before []Meal) {
	h.entries = h.entries[:h.index+1]
	h.seq++
	h.entries = append(h.entries, HistoryEntry{Index: h.seq, Meals: cloneMeals(before)})
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
	h.index = len(h.entries) - 1
	h.tip = nil
}

func (h *History) CanUndo() bool { return h.index >= 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Len is the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Undo returns the state to restore, or ok=false when there is nothing to undo.
// current is the live state, kept as the redo target when undoing from head.
func (h *History) Undo(current []Meal) (restore []Meal, ok bool) {
	if !h.CanUndo() {
		return nil, false
	}
	if !h.CanRedo() {
		h.tip = cloneMeals(current)
	}
	restore = cloneMeals(h.entries[h.index].Meals)
	h.index--
	return restore, true
}

// Redo returns the state to restore, or ok=false when already at head.
func (h *History) Redo() (restore []Meal, ok bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	if h.index+1 < len(h.entries) {
		return cloneMeals(h.entries[h.index+1].Meals), true
	}
	return cloneMeals(h.tip), true
}

// Entries returns a copy of the stored snapshots, oldest first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	for i, e := range h.entries {
		out[i] = HistoryEntry{Index: e.Index, Meals: cloneMeals(e.Meals)}
	}
	return out
}
