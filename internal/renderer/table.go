package renderer

// Table holds the renderable boundaries of every frame, computed once.
type Table struct {
	rows [][]int
}

func NewTable(m *Model) *Table {
	t := &Table{rows: make([][]int, m.TotalFrames()+1)}
	for f := range t.rows {
		t.rows[f] = m.FrameBoundaries(f)
	}
	return t
}

func (t *Table) Len() int { return len(t.rows) }

// At returns the stored row for frame f. Callers must not modify it.
func (t *Table) At(f int) []int {
	return t.rows[min(max(f, 0), len(t.rows)-1)]
}
