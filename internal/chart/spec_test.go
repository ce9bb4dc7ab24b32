package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"databoard/pkg/contracts/domain"
)

func sampleRows() []domain.AggregateRow {
	return []domain.AggregateRow{
		{Key: "강남", Total: 120000},
		{Key: "잠실", Total: 98000},
		{Key: "홍대입구", Total: 76000},
	}
}

func TestBarPreservesAggregateOrder(t *testing.T) {
	rows := sampleRows()
	colors := GradientGray(len(rows))

	spec := Bar("출발역 TOP", "역", "승하차", rows, colors)

	assert.Equal(t, domain.ChartTypeBar, spec.Type)
	assert.Equal(t, "출발역 TOP", spec.Title)
	assert.Equal(t, "역", spec.XLabel)
	assert.Equal(t, "승하차", spec.YLabel)
	assert.Equal(t, []string{"강남", "잠실", "홍대입구"}, spec.Categories)
	assert.Equal(t, []int64{120000, 98000, 76000}, spec.Values)
	assert.Equal(t, colors, spec.Colors)
}

func TestBarEmpty(t *testing.T) {
	spec := Bar("empty", "x", "y", nil, nil)
	assert.Empty(t, spec.Categories)
	assert.Empty(t, spec.Values)
}

func TestPie(t *testing.T) {
	rows := sampleRows()
	spec := Pie("분포", rows, GradientGray(len(rows)))

	assert.Equal(t, domain.ChartTypePie, spec.Type)
	assert.Empty(t, spec.XLabel)
	assert.Empty(t, spec.YLabel)
	assert.Equal(t, []string{"강남", "잠실", "홍대입구"}, spec.Categories)
}

func TestBoardCountsRows(t *testing.T) {
	rows := sampleRows()
	board := Board(Bar("t", "x", "y", rows, nil), rows)

	assert.Equal(t, 3, board.Count)
	assert.Equal(t, rows, board.Table)
	assert.Equal(t, "t", board.Chart.Title)
}
