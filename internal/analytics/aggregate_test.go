package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databoard/internal/dataset"
	"databoard/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ridershipRow(day time.Time, line, station string, on, off int64) []dataset.Cell {
	return []dataset.Cell{
		dataset.TimeCell(day),
		dataset.StringCell(line),
		dataset.StringCell(station),
		dataset.IntCell(on),
		dataset.IntCell(off),
	}
}

func ridershipTable(rows ...[]dataset.Cell) *dataset.Table {
	return &dataset.Table{
		Columns: []string{dataset.ColDate, dataset.ColLine, dataset.ColStation, dataset.ColOn, dataset.ColOff},
		Rows:    rows,
	}
}

func TestRidershipTop(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 1), "1", "A", 10, 5),
		ridershipRow(date(2025, 10, 1), "1", "B", 3, 2),
	)

	rows, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 5})
	require.NoError(t, err)

	assert.Equal(t, []domain.AggregateRow{
		{Key: "A", Total: 15},
		{Key: "B", Total: 5},
	}, rows)
}

func TestRidershipTopGroupsAcrossRows(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 1), "1", "A", 10, 5),
		ridershipRow(date(2025, 10, 1), "1", "B", 100, 0),
		ridershipRow(date(2025, 10, 1), "1", "A", 20, 10),
	)

	rows, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 5})
	require.NoError(t, err)

	assert.Equal(t, []domain.AggregateRow{
		{Key: "B", Total: 100},
		{Key: "A", Total: 45},
	}, rows)
}

func TestRidershipTopFiltersDateAndLine(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 1), "1", "A", 10, 5),
		ridershipRow(date(2025, 10, 2), "1", "A", 99, 99), // other day
		ridershipRow(date(2025, 10, 1), "2", "A", 99, 99), // other line
	)

	rows, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 5})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(15), rows[0].Total)
}

func TestRidershipTopEmptySelection(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 1), "1", "A", 10, 5),
	)

	_, err := RidershipTop(table, TopQuery{Date: date(2025, 11, 1), Line: "1", TopN: 5})
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestRidershipTopMissingColumn(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{dataset.ColDate, dataset.ColLine, dataset.ColStation, dataset.ColOn},
		Rows:    [][]dataset.Cell{},
	}

	_, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 5})

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, dataset.ColOff, missing.Column)
}

func TestRidershipTopRejectsInvalidTopN(t *testing.T) {
	table := ridershipTable()

	_, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 0})
	assert.Error(t, err)
}

func TestRidershipTopTruncationAndOrdering(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 1), "1", "A", 1, 0),
		ridershipRow(date(2025, 10, 1), "1", "B", 5, 0),
		ridershipRow(date(2025, 10, 1), "1", "C", 3, 0),
		ridershipRow(date(2025, 10, 1), "1", "D", 5, 0), // ties with B
		ridershipRow(date(2025, 10, 1), "1", "E", 2, 0),
	)

	rows, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 3})
	require.NoError(t, err)

	require.Len(t, rows, 3)

	// Totals are non-increasing; the B/D tie keeps first-seen order.
	assert.Equal(t, "B", rows[0].Key)
	assert.Equal(t, "D", rows[1].Key)
	assert.Equal(t, "C", rows[2].Key)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Total, rows[i].Total)
	}

	// Returned sum never exceeds the filtered input's sum.
	var returned, filtered int64
	for _, r := range rows {
		returned += r.Total
	}
	for _, row := range table.Rows {
		filtered += row[3].AsInt() + row[4].AsInt()
	}
	assert.LessOrEqual(t, returned, filtered)
}

func TestRidershipTopCountMayBeLessThanN(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 1), "1", "A", 10, 5),
	)

	rows, err := RidershipTop(table, TopQuery{Date: date(2025, 10, 1), Line: "1", TopN: 50})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOptions(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 2), "2", "A", 1, 1),
		ridershipRow(date(2025, 10, 1), "1", "B", 1, 1),
		ridershipRow(date(2025, 11, 3), "1", "C", 1, 1),
	)

	opts, err := Options(table, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-10-01", "2025-10-02", "2025-11-03"}, opts.Dates)
	assert.Equal(t, []string{"1", "2"}, opts.Categories)
}

func TestOptionsMonthFilter(t *testing.T) {
	table := ridershipTable(
		ridershipRow(date(2025, 10, 2), "1", "A", 1, 1),
		ridershipRow(date(2025, 11, 3), "1", "B", 1, 1),
	)

	opts, err := Options(table, "2025-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-10-02"}, opts.Dates)
}

func TestOptionsMissingColumn(t *testing.T) {
	table := &dataset.Table{Columns: []string{dataset.ColDate}}

	_, err := Options(table, "")

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, dataset.ColLine, missing.Column)
}
