// Package domain contains the data structures shared between the dashboard
// pipeline and its transports. These are wire contracts: every field is
// serialized to JSON for the UI collaborator and must stay stable.
package domain

import "time"

// ChartType identifies the kind of chart a board renders.
type ChartType string

const (
	ChartTypeBar ChartType = "bar"
	ChartTypePie ChartType = "pie"
)

// ChartSpec describes a chart for the UI collaborator to render.
// The category axis follows aggregate order; Colors[i] styles Values[i].
type ChartSpec struct {
	Type       ChartType `json:"type"`
	Title      string    `json:"title"`
	XLabel     string    `json:"x_label,omitempty"`
	YLabel     string    `json:"y_label,omitempty"`
	Categories []string  `json:"categories"`
	Values     []int64   `json:"values"`
	Colors     []string  `json:"colors"`
}

// AggregateRow is one group of the top-N aggregate: an entity key and the
// total summed over the rows that grouped under it.
type AggregateRow struct {
	Key   string `json:"key"`
	Total int64  `json:"total"`
}

// Board is the product of one full pipeline run: the chart specification,
// the backing table for the tabular display, and any non-fatal warnings.
type Board struct {
	Chart    ChartSpec      `json:"chart"`
	Table    []AggregateRow `json:"table"`
	Count    int            `json:"count"`
	Warnings []string       `json:"warnings,omitempty"`
}

// SelectionOptions carries the distinct values the UI offers as filter
// controls for the ridership board.
type SelectionOptions struct {
	Dates      []string `json:"dates"`
	Categories []string `json:"categories"`
}

// DateSpan is the inclusive range of dates observed in a dataset.
type DateSpan struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
