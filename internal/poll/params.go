package poll

import "github.com/FlyingRobots-Pequi/pidcal/internal/link"

// ParamTable is the displayed parameter table: id to value and total count,
// in order of first arrival. A repeated id overwrites the earlier row in place.
type ParamTable struct {
	index   map[string]int
	entries []link.ParamEntry
}

// NewParamTable returns an empty table.
func NewParamTable() *ParamTable {
	return &ParamTable{index: make(map[string]int)}
}

// Put inserts or overwrites one row.
func (t *ParamTable) Put(e link.ParamEntry) {
	if i, ok := t.index[e.ID]; ok {
		t.entries[i] = e
		return
	}
	t.index[e.ID] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Get returns the row for id.
func (t *ParamTable) Get(id string) (link.ParamEntry, bool) {
	i, ok := t.index[id]
	if !ok {
		return link.ParamEntry{}, false
	}
	return t.entries[i], true
}

// Len returns the number of distinct ids.
func (t *ParamTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the rows in arrival order.
func (t *ParamTable) Entries() []link.ParamEntry {
	return append([]link.ParamEntry(nil), t.entries...)
}
