package pipeline

import (
	"context"
	"fmt"

	"databoard/internal/analytics"
	"databoard/internal/chart"
	"databoard/internal/dataset"
)

// Stage IDs, in execution order.
const (
	StageIDLoad      = "load"
	StageIDNormalize = "normalize"
	StageIDAggregate = "aggregate"
	StageIDRender    = "render"
)

// Skipper is implemented by stages whose work may already be done, e.g.
// when the service pre-fills the run with a cached normalized table.
type Skipper interface {
	SkipReason(state *State) (string, bool)
}

// DefaultStages returns the four stages of a ridership board run in order.
func DefaultStages() []Stage {
	return []Stage{
		NewLoadStage(),
		NewNormalizeStage(),
		NewAggregateStage(),
		NewRenderStage(),
	}
}

// LoadStage reads the source path or uploaded stream into a raw table.
type LoadStage struct {
	BaseStage
}

// NewLoadStage creates the load stage.
func NewLoadStage() *LoadStage {
	return &LoadStage{BaseStage: NewBaseStage(StageIDLoad, "Load Dataset")}
}

// SkipReason skips loading when the service supplied a cached table.
func (s *LoadStage) SkipReason(state *State) (string, bool) {
	if state.Table != nil {
		return "table supplied by cache", true
	}
	return "", false
}

// Execute loads the dataset into state.Table.
func (s *LoadStage) Execute(ctx context.Context, state *State) error {
	if state.Source != nil {
		table, err := dataset.LoadStream(state.Source, state.SourceName)
		if err != nil {
			return err
		}
		state.Table = table
		return nil
	}
	table, err := dataset.Load(state.SourcePath)
	if err != nil {
		return err
	}
	state.Table = table
	return nil
}

// NormalizeStage repairs headers and coerces column types.
type NormalizeStage struct {
	BaseStage
}

// NewNormalizeStage creates the normalize stage.
func NewNormalizeStage() *NormalizeStage {
	return &NormalizeStage{BaseStage: NewBaseStage(StageIDNormalize, "Normalize Table")}
}

// SkipReason skips normalization when the load stage was skipped: the
// cached table went through normalization before it was cached.
func (s *NormalizeStage) SkipReason(state *State) (string, bool) {
	if load := state.GetStage(StageIDLoad); load != nil && load.GetStatus() == StageStatusSkipped {
		return "table supplied by cache", true
	}
	return "", false
}

// Execute replaces state.Table with its normalized form.
func (s *NormalizeStage) Execute(ctx context.Context, state *State) error {
	if state.Table == nil {
		return fmt.Errorf("normalize: no table loaded")
	}
	state.Table = dataset.Normalize(state.Table)
	return nil
}

// AggregateStage filters by the query and computes the top-N groups.
type AggregateStage struct {
	BaseStage
}

// NewAggregateStage creates the aggregate stage.
func NewAggregateStage() *AggregateStage {
	return &AggregateStage{BaseStage: NewBaseStage(StageIDAggregate, "Filter & Aggregate")}
}

// Execute computes state.Rows from state.Table and state.Query.
func (s *AggregateStage) Execute(ctx context.Context, state *State) error {
	if state.Table == nil {
		return fmt.Errorf("aggregate: no table loaded")
	}
	rows, err := analytics.RidershipTop(state.Table, state.Query)
	if err != nil {
		return err
	}
	state.Rows = rows
	return nil
}

// RenderStage colorizes the aggregate and builds the board.
type RenderStage struct {
	BaseStage
}

// NewRenderStage creates the render stage.
func NewRenderStage() *RenderStage {
	return &RenderStage{BaseStage: NewBaseStage(StageIDRender, "Render Board")}
}

// Execute builds state.Board from state.Rows.
func (s *RenderStage) Execute(ctx context.Context, state *State) error {
	title := fmt.Sprintf("Top %d stations on %s (line %s)",
		state.Query.TopN, state.Query.Date.Format("2006-01-02"), state.Query.Line)
	colors := chart.GradientGray(len(state.Rows))
	spec := chart.Bar(title, "station", "riders", state.Rows, colors)
	state.Board = chart.Board(spec, state.Rows)
	return nil
}
