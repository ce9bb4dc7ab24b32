package chart

import (
	"databoard/pkg/contracts/domain"
)

// Bar builds a bar chart specification from an aggregate: category axis in
// aggregate order, value axis the totals, per-bar color from the sequence.
func Bar(title, xLabel, yLabel string, rows []domain.AggregateRow, colors []string) domain.ChartSpec {
	spec := domain.ChartSpec{
		Type:       domain.ChartTypeBar,
		Title:      title,
		XLabel:     xLabel,
		YLabel:     yLabel,
		Categories: make([]string, len(rows)),
		Values:     make([]int64, len(rows)),
		Colors:     colors,
	}
	for i, row := range rows {
		spec.Categories[i] = row.Key
		spec.Values[i] = row.Total
	}
	return spec
}

// Pie builds a pie chart specification from an aggregate.
func Pie(title string, rows []domain.AggregateRow, colors []string) domain.ChartSpec {
	spec := Bar(title, "", "", rows, colors)
	spec.Type = domain.ChartTypePie
	return spec
}

// Board packages a chart and its backing table into the board the UI
// consumes.
func Board(spec domain.ChartSpec, rows []domain.AggregateRow) domain.Board {
	return domain.Board{
		Chart: spec,
		Table: rows,
		Count: len(rows),
	}
}
