package analytics

import (
	"sort"
	"strings"
	"time"

	"databoard/internal/dataset"
	"databoard/pkg/contracts/domain"
)

// CategoryRule maps item-name keywords to a menu category. Matching is
// case-insensitive substring containment.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// MenuCategories is the explicit, priority-ordered categorization table.
// The first matching rule wins; the order resolves items whose names match
// several keyword lists (a "chocolate cookie" is dessert_crunch, not
// dessert_sweet, because crunch outranks sweet).
var MenuCategories = []CategoryRule{
	{Name: "dessert_bread", Keywords: []string{"baguette", "bread", "toast", "scone", "croissant", "sandwich"}},
	{Name: "dessert_crunch", Keywords: []string{"cookie", "meringue", "crunch"}},
	{Name: "dessert_soft", Keywords: []string{"cake", "tiramisu", "pudding", "brownie", "muffin"}},
	{Name: "dessert_sweet", Keywords: []string{"jam", "honey", "sweet", "chocolate", "caramel"}},
	{Name: "drink_coffee", Keywords: []string{"coffee", "espresso", "americano", "latte"}},
	{Name: "drink_tea", Keywords: []string{"tea", "chai"}},
	{Name: "drink_sweet", Keywords: []string{"juice", "smoothie", "soda", "milk", "cocoa", "hot chocolate"}},
}

// savoryKeywords classify fall-through items as meals.
var savoryKeywords = []string{"soup", "salad", "pasta", "chicken", "eggs"}

// CategoryNames returns the category identifiers in priority order.
func CategoryNames() []string {
	names := make([]string, 0, len(MenuCategories)+2)
	for _, rule := range MenuCategories {
		names = append(names, rule.Name)
	}
	return append(names, "meal", "other")
}

// Categorize maps an item name to its menu category.
func Categorize(item string) string {
	lower := strings.ToLower(item)

	for _, rule := range MenuCategories {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Name
			}
		}
	}

	for _, kw := range savoryKeywords {
		if strings.Contains(lower, kw) {
			return "meal"
		}
	}

	return "other"
}

// menuRequired lists the canonical columns every menu operation needs.
var menuRequired = []string{dataset.ColItem}

// Summary describes the shape of the bakery transaction log.
func Summary(t *dataset.Table) (domain.MenuSummary, error) {
	if err := requireColumns(t, menuRequired); err != nil {
		return domain.MenuSummary{}, err
	}

	itemIdx := t.ColumnIndex(dataset.ColItem)
	dateIdx := t.ColumnIndex(dataset.ColDate)

	items := make(map[string]bool)
	var span domain.DateSpan

	for _, row := range t.Rows {
		if item := row[itemIdx].String(); item != "" {
			items[item] = true
		}
		if dateIdx >= 0 && dateIdx < len(row) && row[dateIdx].Kind == dataset.KindTime {
			ts := row[dateIdx].Time
			if span.From.IsZero() || ts.Before(span.From) {
				span.From = ts
			}
			if ts.After(span.To) {
				span.To = ts
			}
		}
	}

	dayparts, err := daypartValues(t)
	if err != nil {
		return domain.MenuSummary{}, err
	}

	return domain.MenuSummary{
		Records:       t.Len(),
		DistinctItems: len(items),
		Dayparts:      dayparts,
		Span:          span,
	}, nil
}

// PopularItems counts transactions per item within the selected daypart and
// returns the top-N items, descending, ties in first-seen order.
func PopularItems(t *dataset.Table, daypart string, topN int) ([]domain.AggregateRow, error) {
	if err := requireColumns(t, menuRequired); err != nil {
		return nil, err
	}

	itemIdx := t.ColumnIndex(dataset.ColItem)

	counts := make(map[string]int64)
	order := make([]string, 0)

	matched := false
	for i, row := range t.Rows {
		if !strings.EqualFold(rowDaypart(t, i), daypart) {
			continue
		}
		matched = true

		item := row[itemIdx].String()
		if item == "" {
			continue
		}
		if _, seen := counts[item]; !seen {
			order = append(order, item)
		}
		counts[item]++
	}

	if !matched {
		return nil, ErrEmptySelection
	}

	rows := make([]domain.AggregateRow, 0, len(order))
	for _, item := range order {
		rows = append(rows, domain.AggregateRow{Key: item, Total: counts[item]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})

	if topN >= 1 && len(rows) > topN {
		rows = rows[:topN]
	}
	return rows, nil
}

// Recommend returns the distinct item pools for a dessert category and a
// drink category, plus one deterministic pick per pool: the first item of
// the sorted pool offset by seed.
func Recommend(t *dataset.Table, dessertCategory, drinkCategory string, seed int) (domain.Recommendation, error) {
	if err := requireColumns(t, menuRequired); err != nil {
		return domain.Recommendation{}, err
	}

	itemIdx := t.ColumnIndex(dataset.ColItem)

	dessertPool := make(map[string]bool)
	drinkPool := make(map[string]bool)

	for _, row := range t.Rows {
		item := row[itemIdx].String()
		if item == "" {
			continue
		}
		switch Categorize(item) {
		case dessertCategory:
			dessertPool[item] = true
		case drinkCategory:
			drinkPool[item] = true
		}
	}

	if len(dessertPool) == 0 && len(drinkPool) == 0 {
		return domain.Recommendation{}, ErrEmptySelection
	}

	rec := domain.Recommendation{
		DessertPool: sortedKeys(dessertPool),
		DrinkPool:   sortedKeys(drinkPool),
	}
	rec.Dessert = pick(rec.DessertPool, seed)
	rec.Drink = pick(rec.DrinkPool, seed)

	return rec, nil
}

// pick selects the seed-offset element of a sorted pool.
func pick(pool []string, seed int) string {
	if len(pool) == 0 {
		return ""
	}
	if seed < 0 {
		seed = -seed
	}
	return pool[seed%len(pool)]
}

// DayTypeComparison counts transactions for weekend versus weekday. When
// the daytype column is absent it derives from the date's weekday.
func DayTypeComparison(t *dataset.Table) (domain.DayTypeComparison, error) {
	if err := requireColumns(t, menuRequired); err != nil {
		return domain.DayTypeComparison{}, err
	}

	var cmp domain.DayTypeComparison

	counted := false
	for i := range t.Rows {
		switch rowDayType(t, i) {
		case DayTypeWeekend:
			cmp.Weekend++
			counted = true
		case DayTypeWeekday:
			cmp.Weekday++
			counted = true
		}
	}

	if !counted {
		return domain.DayTypeComparison{}, ErrEmptySelection
	}
	return cmp, nil
}

// DaypartDistribution counts transactions per daypart for the pie chart,
// sorted descending by count. Ties keep first-seen order.
func DaypartDistribution(t *dataset.Table) ([]domain.AggregateRow, error) {
	if err := requireColumns(t, menuRequired); err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	order := make([]string, 0)

	for i := range t.Rows {
		block := rowDaypart(t, i)
		if block == "" {
			block = BlockUnknown
		}
		block = strings.ToLower(block)
		if _, seen := counts[block]; !seen {
			order = append(order, block)
		}
		counts[block]++
	}

	if len(order) == 0 {
		return nil, ErrEmptySelection
	}

	rows := make([]domain.AggregateRow, 0, len(order))
	for _, block := range order {
		rows = append(rows, domain.AggregateRow{Key: block, Total: counts[block]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	return rows, nil
}

// daypartValues returns the distinct dayparts present (or derivable).
func daypartValues(t *dataset.Table) ([]string, error) {
	set := make(map[string]bool)
	for i := range t.Rows {
		if block := rowDaypart(t, i); block != "" {
			set[strings.ToLower(block)] = true
		}
	}
	return sortedKeys(set), nil
}

// rowDaypart reads the daypart column when present, deriving the block from
// the date timestamp otherwise.
func rowDaypart(t *dataset.Table, row int) string {
	if cell := t.Cell(row, dataset.ColDaypart); !cell.IsEmpty() {
		return cell.String()
	}
	if cell := t.Cell(row, dataset.ColDate); cell.Kind == dataset.KindTime {
		return HourBlock(cell.Time.Hour())
	}
	return BlockUnknown
}

// rowDayType reads the daytype column when present, deriving it from the
// date's weekday otherwise.
func rowDayType(t *dataset.Table, row int) string {
	if cell := t.Cell(row, dataset.ColDayType); !cell.IsEmpty() {
		return strings.ToLower(cell.String())
	}
	if cell := t.Cell(row, dataset.ColDate); cell.Kind == dataset.KindTime {
		return DayTypeOf(cell.Time)
	}
	return ""
}

// DayTypeOf derives weekend/weekday from a timestamp.
func DayTypeOf(ts time.Time) string {
	switch ts.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}
