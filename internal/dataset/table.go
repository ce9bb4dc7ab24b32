package dataset

import (
	"strconv"
	"time"
)

// CellKind discriminates the value stored in a Cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindInt
	KindTime
)

// Cell is a small tagged union: the value of one table field. The zero Cell
// is the explicit "no value" sentinel produced for unparseable dates.
type Cell struct {
	Kind CellKind
	Str  string
	Int  int64
	Time time.Time
}

// EmptyCell returns the "no value" sentinel.
func EmptyCell() Cell {
	return Cell{Kind: KindEmpty}
}

// StringCell wraps a string value.
func StringCell(s string) Cell {
	return Cell{Kind: KindString, Str: s}
}

// IntCell wraps an integer value.
func IntCell(n int64) Cell {
	return Cell{Kind: KindInt, Int: n}
}

// TimeCell wraps a timestamp value.
func TimeCell(t time.Time) Cell {
	return Cell{Kind: KindTime, Time: t}
}

// IsEmpty reports whether the cell is the "no value" sentinel.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// String renders the cell for display and grouping keys.
func (c Cell) String() string {
	switch c.Kind {
	case KindString:
		return c.Str
	case KindInt:
		return strconv.FormatInt(c.Int, 10)
	case KindTime:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// AsInt returns the integer value of the cell, zero for non-numeric kinds.
func (c Cell) AsInt() int64 {
	if c.Kind == KindInt {
		return c.Int
	}
	return 0
}

// Table is an ordered sequence of rows over named columns. It is loaded once
// per interaction and treated as immutable after normalization; consumers
// that add derived columns work on a Clone.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column is present.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the cell at (row, column name), or the empty sentinel when
// the column is absent or the row is ragged.
func (t *Table) Cell(row int, column string) Cell {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return EmptyCell()
	}
	return t.Rows[row][idx]
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]Cell, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, row := range t.Rows {
		out.Rows[i] = make([]Cell, len(row))
		copy(out.Rows[i], row)
	}
	return out
}

// AddColumn appends a derived column. Rows beyond len(cells) get the empty
// sentinel.
func (t *Table) AddColumn(name string, cells []Cell) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		if i < len(cells) {
			t.Rows[i] = append(t.Rows[i], cells[i])
		} else {
			t.Rows[i] = append(t.Rows[i], EmptyCell())
		}
	}
}
