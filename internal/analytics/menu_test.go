package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databoard/internal/dataset"
	"databoard/pkg/contracts/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		item string
		want string
	}{
		{"Baguette", "dessert_bread"},
		{"Toast and jam", "dessert_bread"}, // bread keywords outrank sweet
		{"Chocolate cookie", "dessert_crunch"},
		{"Victoria Sponge Cake", "dessert_soft"},
		{"Honey", "dessert_sweet"},
		{"Americano", "drink_coffee"},
		{"Chai Latte", "drink_coffee"}, // latte outranks tea by table order
		{"Green Tea", "drink_tea"},
		{"Orange Juice", "drink_sweet"},
		{"Chicken Soup", "meal"},
		{"Salad Bowl", "meal"},
		{"Gift Voucher", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.item))
		})
	}
}

func TestCategoryNames(t *testing.T) {
	names := CategoryNames()

	assert.Equal(t, "dessert_bread", names[0])
	assert.Equal(t, "other", names[len(names)-1])
	assert.Len(t, names, len(MenuCategories)+2)
}

func TestHourBlock(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, BlockNight},
		{2, BlockNight},
		{3, BlockOther},
		{5, BlockOther},
		{6, BlockMorning},
		{10, BlockMorning},
		{11, BlockLunch},
		{14, BlockLunch},
		{15, BlockAfternoon},
		{17, BlockAfternoon},
		{18, BlockEvening},
		{21, BlockEvening},
		{22, BlockNight},
		{23, BlockNight},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HourBlock(tt.hour), "hour %d", tt.hour)
	}
}

func TestDayTypeOf(t *testing.T) {
	saturday := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 10, 6, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DayTypeWeekend, DayTypeOf(saturday))
	assert.Equal(t, DayTypeWeekday, DayTypeOf(monday))
}

func menuTable() *dataset.Table {
	ts := func(day, hour int) dataset.Cell {
		return dataset.TimeCell(time.Date(2025, 10, day, hour, 0, 0, 0, time.UTC))
	}
	return &dataset.Table{
		Columns: []string{dataset.ColTransaction, dataset.ColItem, dataset.ColDate, dataset.ColDaypart, dataset.ColDayType},
		Rows: [][]dataset.Cell{
			{dataset.IntCell(1), dataset.StringCell("Bread"), ts(4, 9), dataset.StringCell("Morning"), dataset.StringCell("Weekend")},
			{dataset.IntCell(2), dataset.StringCell("Coffee"), ts(4, 9), dataset.StringCell("Morning"), dataset.StringCell("Weekend")},
			{dataset.IntCell(3), dataset.StringCell("Bread"), ts(6, 12), dataset.StringCell("Lunch"), dataset.StringCell("Weekday")},
			{dataset.IntCell(4), dataset.StringCell("Cookies"), ts(6, 9), dataset.StringCell("Morning"), dataset.StringCell("Weekday")},
			{dataset.IntCell(5), dataset.StringCell("Bread"), ts(6, 9), dataset.StringCell("Morning"), dataset.StringCell("Weekday")},
		},
	}
}

func TestSummary(t *testing.T) {
	got, err := Summary(menuTable())
	require.NoError(t, err)

	assert.Equal(t, 5, got.Records)
	assert.Equal(t, 3, got.DistinctItems)
	assert.Equal(t, []string{"lunch", "morning"}, got.Dayparts)
	assert.Equal(t, 4, got.Span.From.Day())
	assert.Equal(t, 6, got.Span.To.Day())
}

func TestPopularItems(t *testing.T) {
	rows, err := PopularItems(menuTable(), "morning", 5)
	require.NoError(t, err)

	assert.Equal(t, []domain.AggregateRow{
		{Key: "Bread", Total: 2},
		{Key: "Coffee", Total: 1},
		{Key: "Cookies", Total: 1},
	}, rows)
}

func TestPopularItemsTruncates(t *testing.T) {
	rows, err := PopularItems(menuTable(), "morning", 1)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Bread", rows[0].Key)
}

func TestPopularItemsEmptyDaypart(t *testing.T) {
	_, err := PopularItems(menuTable(), "evening", 5)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestPopularItemsDerivesDaypartFromTimestamp(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{dataset.ColItem, dataset.ColDate},
		Rows: [][]dataset.Cell{
			{dataset.StringCell("Scone"), dataset.TimeCell(time.Date(2025, 10, 6, 8, 30, 0, 0, time.UTC))},
		},
	}

	rows, err := PopularItems(table, "morning", 5)
	require.NoError(t, err)
	assert.Equal(t, "Scone", rows[0].Key)
}

func TestRecommend(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{dataset.ColItem},
		Rows: [][]dataset.Cell{
			{dataset.StringCell("Honey")},
			{dataset.StringCell("Caramel Slice")},
			{dataset.StringCell("Americano")},
			{dataset.StringCell("Latte")},
			{dataset.StringCell("Salad")},
		},
	}

	rec, err := Recommend(table, "dessert_sweet", "drink_coffee", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Caramel Slice", "Honey"}, rec.DessertPool)
	assert.Equal(t, []string{"Americano", "Latte"}, rec.DrinkPool)
	assert.Equal(t, "Caramel Slice", rec.Dessert)
	assert.Equal(t, "Americano", rec.Drink)

	// A seed offsets the pick deterministically.
	seeded, err := Recommend(table, "dessert_sweet", "drink_coffee", 1)
	require.NoError(t, err)
	assert.Equal(t, "Honey", seeded.Dessert)
	assert.Equal(t, "Latte", seeded.Drink)
}

func TestRecommendNoMatches(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{dataset.ColItem},
		Rows: [][]dataset.Cell{
			{dataset.StringCell("Salad")},
		},
	}

	_, err := Recommend(table, "dessert_sweet", "drink_coffee", 0)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestDayTypeComparison(t *testing.T) {
	cmp, err := DayTypeComparison(menuTable())
	require.NoError(t, err)

	assert.Equal(t, int64(2), cmp.Weekend)
	assert.Equal(t, int64(3), cmp.Weekday)
}

func TestDayTypeComparisonDerivesFromDate(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{dataset.ColItem, dataset.ColDate},
		Rows: [][]dataset.Cell{
			{dataset.StringCell("Bread"), dataset.TimeCell(time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC))}, // Saturday
			{dataset.StringCell("Bread"), dataset.TimeCell(time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC))}, // Monday
		},
	}

	cmp, err := DayTypeComparison(table)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cmp.Weekend)
	assert.Equal(t, int64(1), cmp.Weekday)
}

func TestDaypartDistribution(t *testing.T) {
	rows, err := DaypartDistribution(menuTable())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, domain.AggregateRow{Key: "morning", Total: 4}, rows[0])
	assert.Equal(t, domain.AggregateRow{Key: "lunch", Total: 1}, rows[1])
}

func TestMenuMissingItemColumn(t *testing.T) {
	table := &dataset.Table{Columns: []string{dataset.ColDate}}

	var missing *MissingColumnError

	_, err := Summary(table)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, dataset.ColItem, missing.Column)

	_, err = PopularItems(table, "morning", 5)
	assert.ErrorAs(t, err, &missing)

	_, err = DayTypeComparison(table)
	assert.ErrorAs(t, err, &missing)
}
