package domain

// MenuSummary describes the shape of the bakery transaction log.
type MenuSummary struct {
	Records       int      `json:"records"`
	DistinctItems int      `json:"distinct_items"`
	Dayparts      []string `json:"dayparts"`
	Span          DateSpan `json:"span"`
}

// Recommendation pairs a dessert pick with a drink pick, along with the full
// pools they were drawn from so the UI can offer a re-roll.
type Recommendation struct {
	Dessert     string   `json:"dessert"`
	Drink       string   `json:"drink"`
	DessertPool []string `json:"dessert_pool"`
	DrinkPool   []string `json:"drink_pool"`
}

// DayTypeComparison holds transaction counts for weekend versus weekday.
type DayTypeComparison struct {
	Weekday int64 `json:"weekday"`
	Weekend int64 `json:"weekend"`
}
