package analytics

import (
	"fmt"
	"sort"
	"time"

	"databoard/internal/dataset"
	"databoard/pkg/contracts/domain"
)

// TopQuery selects the slice of the ridership table one board run displays.
type TopQuery struct {
	Date time.Time
	Line string
	TopN int
}

// ridershipRequired lists the canonical columns the ridership aggregation
// needs; the first absent one is reported by name.
var ridershipRequired = []string{
	dataset.ColDate,
	dataset.ColLine,
	dataset.ColStation,
	dataset.ColOn,
	dataset.ColOff,
}

// RidershipTop restricts the normalized table to the selected date and line,
// sums boarding and alighting counts into a per-row total, groups by
// station, and returns the top-N groups by total, descending. Ties keep
// first-seen insertion order. The returned count may be less than TopN.
func RidershipTop(t *dataset.Table, q TopQuery) ([]domain.AggregateRow, error) {
	if q.TopN < 1 {
		return nil, fmt.Errorf("top-n must be at least 1, got %d", q.TopN)
	}
	if err := requireColumns(t, ridershipRequired); err != nil {
		return nil, err
	}

	dateIdx := t.ColumnIndex(dataset.ColDate)
	lineIdx := t.ColumnIndex(dataset.ColLine)
	stationIdx := t.ColumnIndex(dataset.ColStation)
	onIdx := t.ColumnIndex(dataset.ColOn)
	offIdx := t.ColumnIndex(dataset.ColOff)

	totals := make(map[string]int64)
	order := make([]string, 0)

	matched := false
	for _, row := range t.Rows {
		date := row[dateIdx]
		if date.Kind != dataset.KindTime || !sameDay(date.Time, q.Date) {
			continue
		}
		if row[lineIdx].String() != q.Line {
			continue
		}
		matched = true

		station := row[stationIdx].String()
		if _, seen := totals[station]; !seen {
			order = append(order, station)
		}
		totals[station] += row[onIdx].AsInt() + row[offIdx].AsInt()
	}

	if !matched {
		return nil, ErrEmptySelection
	}

	rows := make([]domain.AggregateRow, 0, len(order))
	for _, station := range order {
		rows = append(rows, domain.AggregateRow{Key: station, Total: totals[station]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})

	if len(rows) > q.TopN {
		rows = rows[:q.TopN]
	}
	return rows, nil
}

// Options returns the distinct dates and lines present in the table, for
// the UI's selection controls. When month ("YYYY-MM") is non-empty, dates
// are restricted to that calendar month.
func Options(t *dataset.Table, month string) (domain.SelectionOptions, error) {
	if err := requireColumns(t, []string{dataset.ColDate, dataset.ColLine}); err != nil {
		return domain.SelectionOptions{}, err
	}

	dateIdx := t.ColumnIndex(dataset.ColDate)
	lineIdx := t.ColumnIndex(dataset.ColLine)

	dates := make(map[string]bool)
	lines := make(map[string]bool)

	for _, row := range t.Rows {
		if date := row[dateIdx]; date.Kind == dataset.KindTime {
			key := date.Time.Format("2006-01-02")
			if month == "" || key[:7] == month {
				dates[key] = true
			}
		}
		if line := row[lineIdx].String(); line != "" {
			lines[line] = true
		}
	}

	return domain.SelectionOptions{
		Dates:      sortedKeys(dates),
		Categories: sortedKeys(lines),
	}, nil
}

// requireColumns returns a MissingColumnError for the first absent column.
func requireColumns(t *dataset.Table, columns []string) error {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return &MissingColumnError{Column: col}
		}
	}
	return nil
}

// sameDay reports calendar-day equality, ignoring time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
